// Package session keeps the bearer token of the signed-in user.
package session

import (
	"context"
	"sync"
)

// Store holds the current bearer token. An empty token means anonymous.
type Store interface {
	Token(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Memory is a process-local token store
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Token(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *Memory) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// TokenBackend is the Redis side of the token store
type TokenBackend interface {
	GetToken(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Redis keeps the token in Redis so it survives restarts
type Redis struct {
	backend TokenBackend
}

// NewRedis creates a Redis-backed store
func NewRedis(backend TokenBackend) *Redis {
	return &Redis{backend: backend}
}

func (r *Redis) Token(ctx context.Context) (string, error) {
	return r.backend.GetToken(ctx)
}

func (r *Redis) Save(ctx context.Context, token string) error {
	return r.backend.SetToken(ctx, token)
}

func (r *Redis) Clear(ctx context.Context) error {
	return r.backend.ClearToken(ctx)
}
