package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/axmedovx0430/davomatai/backend/config"
)

// Client Redis 客户端封装
// 当前用于考勤写入互斥锁与接口限流；后续可扩展缓存等场景
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 考勤写入互斥锁 ──
//
// 同一 (用户, 排课, 上课日期) 的两个并发事件必须串行进入"读取-判定-写入"步骤，
// 否则可能同时观察到"无既有记录"而各自创建。锁丢失时数据库唯一索引兜底。

const checkinLockPrefix = "attendance:lock:"

// AcquireCheckinLock 获取考勤写入锁，返回是否获取成功
func (c *Client) AcquireCheckinLock(ctx context.Context, userID, scheduleID, date string, ttl time.Duration) (bool, error) {
	key := checkinLockPrefix + userID + ":" + scheduleID + ":" + date
	return c.rdb.SetNX(ctx, key, "1", ttl).Result()
}

// ReleaseCheckinLock 释放考勤写入锁
func (c *Client) ReleaseCheckinLock(ctx context.Context, userID, scheduleID, date string) error {
	key := checkinLockPrefix + userID + ":" + scheduleID + ":" + date
	return c.rdb.Del(ctx, key).Err()
}

// ── 接口限流 ──

// CheckRateLimit 固定窗口计数限流，返回是否放行
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

// Healthy 检查 Redis 连通性
func (c *Client) Healthy(ctx context.Context) bool {
	if c == nil {
		return false
	}
	return c.rdb.Ping(ctx).Err() == nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
