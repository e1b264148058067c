package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ThqRel/core/notify"
	"ThqRel/core/release"
	"ThqRel/logger"
	"ThqRel/model"
	"ThqRel/repository"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 前后端分离部署，跨域交给 CORS 中间件
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ModerationListHandler 审核面板的作品列表，支持状态/档位/搜索过滤
func (h *APIHandler) ModerationListHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	q := r.URL.Query()
	filter := repository.ReleaseFilter{
		Status: model.Status(q.Get("status")),
		Tier:   model.Tier(q.Get("tier")),
		Search: q.Get("search"),
	}

	releases, err := h.releaseSvc.ListModeration(r.Context(), actor, filter)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, releases)
}

// ApproveHandler 审核通过，作品进入发行
func (h *APIHandler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	rel, err := h.releaseSvc.Approve(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rel)
}

// RejectHandler 审核驳回，必须填写理由
func (h *APIHandler) RejectHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	rel, err := h.releaseSvc.Reject(r.Context(), actor, mux.Vars(r)["id"], req.Reason)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rel)
}

// VerifyPaymentHandler 审核付款凭证
func (h *APIHandler) VerifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Approved bool   `json:"approved"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	rel, err := h.releaseSvc.VerifyPayment(r.Context(), actor, mux.Vars(r)["id"], req.Approved, req.Reason)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rel)
}

// PublishHandler 发行方确认上线后标记 published
func (h *APIHandler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	rel, err := h.releaseSvc.Publish(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rel)
}

// BulkHandler 批量发布/删除，逐项返回结果
func (h *APIHandler) BulkHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req struct {
		IDs []string       `json:"ids"`
		Op  release.BulkOp `json:"op"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	outcomes, err := h.releaseSvc.BulkTransition(r.Context(), actor, req.IDs, req.Op)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": outcomes})
}

// SetUPCHandler 给已上线作品登记 UPC
func (h *APIHandler) SetUPCHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req struct {
		UPC string `json:"upc"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	rel, err := h.releaseSvc.SetUPC(r.Context(), actor, mux.Vars(r)["id"], req.UPC)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rel)
}

// SetTrackISRCHandler 给已上线作品的曲目登记 ISRC
func (h *APIHandler) SetTrackISRCHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	vars := mux.Vars(r)
	trackIndex, err := strconv.Atoi(vars["index"])
	if err != nil || trackIndex < 0 {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid track index")
		return
	}

	var req struct {
		ISRC string `json:"isrc"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	rel, err := h.releaseSvc.SetTrackISRC(r.Context(), actor, vars["id"], trackIndex, req.ISRC)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rel)
}

// FeedWSHandler 审核事件实时推送
// 审核员收到全部事件，艺人只收自己作品的事件
func (h *APIHandler) FeedWSHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	if h.feedHub == nil {
		respondError(w, http.StatusServiceUnavailable, "unavailable", "Live feed is not enabled")
		return
	}

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("feed websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := &notify.Client{
		Hub:       h.feedHub,
		Conn:      conn,
		Send:      make(chan []byte, 64),
		UserID:    actor.ID,
		Moderator: actor.IsModerator(),
	}
	h.feedHub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
