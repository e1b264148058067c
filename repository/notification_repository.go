package repository

import (
	"context"
	"fmt"

	"ThqRel/model"

	"gorm.io/gorm"
)

// NotificationRepository 定义通知相关的数据库操作接口
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID int64, id string) error
}

// GormNotificationRepository GORM实现的通知仓库（新模块约定，见 db/gorm.go）
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository 创建新的通知仓库实例
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *GormNotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*model.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []*model.Notification
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}
	return out, nil
}

func (r *GormNotificationRepository) MarkRead(ctx context.Context, userID int64, id string) error {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
