package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ThqRel/core/release"
	"ThqRel/logger"

	"github.com/redis/go-redis/v9"
)

// completionTTL 完成度报告的缓存有效期
// 写路径会主动失效，TTL 只是兜底
const completionTTL = 10 * time.Minute

// CompletionCache 基于Redis的完成度报告缓存
type CompletionCache struct {
	client *redis.Client
}

// NewCompletionCache creates a cache over the shared Redis client.
func NewCompletionCache() *CompletionCache {
	return &CompletionCache{client: RedisClient}
}

func completionKey(releaseID string) string {
	return fmt.Sprintf("completion:%s", releaseID)
}

// Get 获取缓存的完成度报告，未命中返回 false
func (c *CompletionCache) Get(ctx context.Context, releaseID string) (*release.CompletionReport, bool) {
	if c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, completionKey(releaseID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("completion cache read failed",
				logger.String("releaseId", releaseID),
				logger.ErrorField(err))
		}
		return nil, false
	}

	var report release.CompletionReport
	if err := json.Unmarshal(data, &report); err != nil {
		logger.Warn("completion cache entry corrupted, dropping",
			logger.String("releaseId", releaseID),
			logger.ErrorField(err))
		c.Invalidate(ctx, releaseID)
		return nil, false
	}
	return &report, true
}

// Set 缓存完成度报告
func (c *CompletionCache) Set(ctx context.Context, releaseID string, report release.CompletionReport) {
	if c.client == nil {
		return
	}

	data, err := json.Marshal(report)
	if err != nil {
		logger.Warn("failed to marshal completion report",
			logger.String("releaseId", releaseID),
			logger.ErrorField(err))
		return
	}
	if err := c.client.Set(ctx, completionKey(releaseID), data, completionTTL).Err(); err != nil {
		logger.Warn("completion cache write failed",
			logger.String("releaseId", releaseID),
			logger.ErrorField(err))
	}
}

// Invalidate 删除缓存条目，草稿被修改或删除时调用
func (c *CompletionCache) Invalidate(ctx context.Context, releaseID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, completionKey(releaseID)).Err(); err != nil {
		logger.Warn("completion cache invalidation failed",
			logger.String("releaseId", releaseID),
			logger.ErrorField(err))
	}
}
