package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gistda/internhub/internal/storage"
)

// Session namespace keys
const (
	KeyCurrentUserID = "currentUserId"
	KeyToken         = "token"
)

// Namespace is the short-lived per-session storage cleared on logout
type Namespace struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewNamespace creates an empty namespace
func NewNamespace() *Namespace {
	return &Namespace{values: map[string]string{}}
}

// Get returns the value for key or ""
func (n *Namespace) Get(key string) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.values[key]
}

// Set stores value under key
func (n *Namespace) Set(key, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.values[key] = value
}

// Remove deletes key
func (n *Namespace) Remove(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.values, key)
}

// Clear deletes everything
func (n *Namespace) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.values = map[string]string{}
}

// Durable is the namespace kept across sessions, backed by a KV
type Durable struct {
	kv storage.KV
}

// NewDurable wraps kv
func NewDurable(kv storage.KV) *Durable {
	return &Durable{kv: kv}
}

func durableKey(owner, key string) string {
	return "prefs:" + owner + ":" + key
}

// Get returns the stored value and whether it was present
func (d *Durable) Get(ctx context.Context, owner, key string) (string, bool, error) {
	raw, err := d.kv.Get(ctx, durableKey(owner, key))
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return string(raw), true, nil
}

// Set stores value for owner
func (d *Durable) Set(ctx context.Context, owner, key, value string) error {
	if err := d.kv.Put(ctx, durableKey(owner, key), []byte(value)); err != nil {
		return fmt.Errorf("failed to save preference %s: %w", key, err)
	}
	return nil
}
