package notify

import (
	"encoding/json"
	"sync"
	"time"

	"ThqRel/logger"
	"ThqRel/model"

	"github.com/gorilla/websocket"
)

// Client 审核实时推送的 WebSocket 客户端
// 审核员连接全局 feed，艺人只收自己作品的事件
type Client struct {
	Hub       *FeedHub
	Conn      *websocket.Conn
	Send      chan []byte
	UserID    int64
	Moderator bool
}

// FeedHub 审核事件推送中心
type FeedHub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *feedMessage

	mu   sync.RWMutex
	done chan struct{}
}

// feedMessage 一条待分发的事件
type feedMessage struct {
	ownerID int64 // 事件所属艺人，审核员总是能收到
	payload []byte
}

// FeedEvent is the wire shape pushed to connected clients.
type FeedEvent struct {
	ReleaseID string                 `json:"releaseId"`
	CustomID  string                 `json:"customId"`
	Title     string                 `json:"title"`
	Action    model.ModerationAction `json:"action"`
	Status    model.Status           `json:"status"`
	Reason    string                 `json:"reason,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// NewFeedHub 创建推送中心
func NewFeedHub() *FeedHub {
	return &FeedHub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *feedMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run 启动 Hub 主循环
func (h *FeedHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Debug("feed client connected", logger.Int64("userId", client.UserID))

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.dispatch(msg)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop 停止 Hub
func (h *FeedHub) Stop() {
	close(h.done)
}

// Register 注册客户端连接，Hub 已停止时直接丢弃
func (h *FeedHub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister 注销客户端连接
func (h *FeedHub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast 向审核员和作品所属艺人推送事件
// 推送通道满时丢弃，不阻塞审核主流程
func (h *FeedHub) Broadcast(ownerID int64, ev FeedEvent) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Warn("failed to marshal feed event", logger.ErrorField(err))
		return
	}
	select {
	case h.broadcast <- &feedMessage{ownerID: ownerID, payload: payload}:
	default:
		logger.Warn("feed broadcast channel full, dropping event",
			logger.String("releaseId", ev.ReleaseID))
	}
}

func (h *FeedHub) dispatch(msg *feedMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if !client.Moderator && client.UserID != msg.ownerID {
			continue
		}
		select {
		case client.Send <- msg.payload:
		default:
			// 发送缓冲已满，断开慢客户端
			go h.Unregister(client)
		}
	}
}

func (h *FeedHub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

func (h *FeedHub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.Send)
		client.Conn.Close()
	}
	h.clients = make(map[*Client]bool)
}

// WritePump 把 Send 通道里的消息写到连接上，由每个连接一个 goroutine 驱动
func (c *Client) WritePump() {
	ticker := time.NewTicker(45 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump 丢弃客户端消息，只用于发现断连
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
