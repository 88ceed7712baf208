package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"driverbot/config"
	"driverbot/pkg/logger"
	"driverbot/pkg/models"
	"driverbot/storage"
)

// Client wraps the go-redis client with health checking capabilities.
type Client struct {
	*redis.Client
}

// New connects to Redis. Returns nil when no host is configured.
func New(ctx context.Context, cfg config.Config) (*Client, error) {
	if cfg.RedisHost == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

type sessionRepo struct {
	rdb *redis.Client
	ttl time.Duration
	log logger.ILogger
}

func NewSessionRepo(c *Client, ttl time.Duration, log logger.ILogger) storage.ISessionStorage {
	return &sessionRepo{rdb: c.Client, ttl: ttl, log: log}
}

func sessionKey(teleID int64) string {
	return "driverbot:session:" + strconv.FormatInt(teleID, 10)
}

func (r *sessionRepo) Get(ctx context.Context, teleID int64) (*models.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(teleID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrSessionNotFound
		}
		r.log.Error("failed to load session", logger.Int64("telegram_id", teleID), logger.Error(err))
		return nil, err
	}

	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		r.log.Warning("dropping unreadable session", logger.Int64("telegram_id", teleID), logger.Error(err))
		return nil, storage.ErrSessionNotFound
	}
	return &s, nil
}

func (r *sessionRepo) Save(ctx context.Context, s *models.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, sessionKey(s.TelegramID), raw, r.ttl).Err(); err != nil {
		r.log.Error("failed to save session", logger.Int64("telegram_id", s.TelegramID), logger.Error(err))
		return err
	}
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, teleID int64) error {
	return r.rdb.Del(ctx, sessionKey(teleID)).Err()
}
