package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"shiftgov/config"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("缓存未命中")

// Client Redis 客户端封装
// 用于排班周期状态缓存与接口限流
type Client struct {
	rdb    goredis.UniversalClient
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

// NewFromClient 包装已有连接（测试使用）
func NewFromClient(rdb goredis.UniversalClient, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── 排班周期状态缓存 ──

const periodStatePrefix = "period:state:"

// PeriodStateKey 周期状态缓存键：period:state:<location>:<week_start>
func PeriodStateKey(locationID string, weekStart time.Time) string {
	return periodStatePrefix + locationID + ":" + weekStart.Format("2006-01-02")
}

// GetPeriodState 读取缓存的周期状态，未命中返回 ErrCacheMiss
func (c *Client) GetPeriodState(ctx context.Context, locationID string, weekStart time.Time) (string, error) {
	v, err := c.rdb.Get(ctx, PeriodStateKey(locationID, weekStart)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrCacheMiss
	}
	return v, err
}

// SetPeriodState 写入周期状态缓存
// 周期流转后直接写入新状态；无治理记录的周也会缓存（值为 none）
func (c *Client) SetPeriodState(ctx context.Context, locationID string, weekStart time.Time, state string, ttl time.Duration) error {
	return c.rdb.Set(ctx, PeriodStateKey(locationID, weekStart), state, ttl).Err()
}

// ── 接口限流（滑动窗口） ──

const rateLimitPrefix = "ratelimit:"

// CheckRateLimit 滑动窗口计数，返回本次请求是否放行
// 基于有序集合：清理窗口外记录 → 计数 → 写入本次请求
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	redisKey := rateLimitPrefix + key
	windowStart := now.Add(-window).UnixNano()

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart, 10))
	count := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	if count.Val() >= int64(limit) {
		return false, nil
	}

	pipe = c.rdb.TxPipeline()
	pipe.ZAdd(ctx, redisKey, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
