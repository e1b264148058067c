package notify

import (
	"context"
	"fmt"

	"ThqRel/core/release"
	"ThqRel/logger"
	"ThqRel/model"
	"ThqRel/repository"
)

// ModerationNotifier 把审核事件落库成通知并广播给在线客户端
// 落库失败只记日志，状态流转本身已经完成
type ModerationNotifier struct {
	repo repository.NotificationRepository
	hub  *FeedHub
}

// NewModerationNotifier creates the notifier. hub may be nil when the
// server runs without the live feed.
func NewModerationNotifier(repo repository.NotificationRepository, hub *FeedHub) *ModerationNotifier {
	return &ModerationNotifier{repo: repo, hub: hub}
}

// ModerationChanged persists a notification for the release owner where
// the action warrants one, then pushes the event to the feed.
func (n *ModerationNotifier) ModerationChanged(ctx context.Context, ev release.ModerationEvent) {
	if notification := notificationFor(ev); notification != nil {
		if err := n.repo.Create(ctx, notification); err != nil {
			logger.Error("failed to persist notification",
				logger.String("releaseId", ev.ReleaseID),
				logger.String("action", string(ev.Action)),
				logger.ErrorField(err))
		}
	}

	if n.hub != nil {
		n.hub.Broadcast(ev.OwnerID, FeedEvent{
			ReleaseID: ev.ReleaseID,
			CustomID:  ev.CustomID,
			Title:     ev.Title,
			Action:    ev.Action,
			Status:    ev.Status,
			Reason:    ev.Reason,
			Timestamp: ev.At.UnixMilli(),
		})
	}
}

// notificationFor 把审核动作映射成给艺人的通知，不需要通知的动作返回 nil
func notificationFor(ev release.ModerationEvent) *model.Notification {
	title := ev.Title
	if title == "" {
		title = ev.CustomID
	}
	link := fmt.Sprintf("/cabinet/releases/%s", ev.ReleaseID)

	switch ev.Action {
	case model.ActionApprove:
		return model.NewNotification(ev.OwnerID,
			"Release approved",
			fmt.Sprintf("%q was approved and sent to distribution.", title),
			model.NotificationSuccess, link)
	case model.ActionReject:
		return model.NewNotification(ev.OwnerID,
			"Release rejected",
			fmt.Sprintf("%q was rejected: %s", title, ev.Reason),
			model.NotificationError, link)
	case model.ActionPublish:
		return model.NewNotification(ev.OwnerID,
			"Release published",
			fmt.Sprintf("%q is now live on the platforms.", title),
			model.NotificationSuccess, link)
	case model.ActionPaymentVerify:
		return model.NewNotification(ev.OwnerID,
			"Payment verified",
			fmt.Sprintf("Payment for %q was verified.", title),
			model.NotificationSuccess, link)
	case model.ActionPaymentReject:
		return model.NewNotification(ev.OwnerID,
			"Payment rejected",
			fmt.Sprintf("Payment for %q was rejected: %s", title, ev.Reason),
			model.NotificationError, link)
	default:
		// 艺人自己的操作（提交、删除等）不生成通知
		return nil
	}
}
