package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	defaultSessionTTL = 24 * time.Hour
	defaultEventTTL   = 7 * 24 * time.Hour
)

// Client stores session tokens and processed-event markers in Redis
type Client struct {
	rdb        redis.UniversalClient
	namespace  string
	sessionTTL time.Duration
	eventTTL   time.Duration
}

// Options configure key names and expirations
type Options struct {
	Namespace  string
	SessionTTL time.Duration
	EventTTL   time.Duration
}

// NewClient connects to Redis and checks the connection
func NewClient(addr, password string, db int, opts Options) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return Wrap(rdb, opts), nil
}

// Wrap uses an existing connection
func Wrap(rdb redis.UniversalClient, opts Options) *Client {
	if opts.Namespace == "" {
		opts.Namespace = "storefront"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.EventTTL <= 0 {
		opts.EventTTL = defaultEventTTL
	}
	return &Client{
		rdb:        rdb,
		namespace:  opts.Namespace,
		sessionTTL: opts.SessionTTL,
		eventTTL:   opts.EventTTL,
	}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) sessionKey() string {
	return fmt.Sprintf("%s:session:token", c.namespace)
}

func (c *Client) eventKey(eventID string) string {
	return fmt.Sprintf("%s:processed:%s", c.namespace, eventID)
}

// GetToken returns the stored bearer token, empty when there is none
func (c *Client) GetToken(ctx context.Context) (string, error) {
	token, err := c.rdb.Get(ctx, c.sessionKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session token: %w", err)
	}
	return token, nil
}

// SetToken stores the bearer token with the session TTL
func (c *Client) SetToken(ctx context.Context, token string) error {
	if err := c.rdb.Set(ctx, c.sessionKey(), token, c.sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	return nil
}

// ClearToken removes the bearer token
func (c *Client) ClearToken(ctx context.Context) error {
	if err := c.rdb.Del(ctx, c.sessionKey()).Err(); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	return nil
}

// IsEventProcessed checks if an event has been processed
func (c *Client) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.eventKey(eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkEventProcessed records an event id. Marking an id twice is not an error.
func (c *Client) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	return c.rdb.SetNX(ctx, c.eventKey(eventID), eventType, c.eventTTL).Err()
}
