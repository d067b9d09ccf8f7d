package composer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultCooldown is the minimum spacing between successful posts.
const DefaultCooldown = 60 * time.Second

// CooldownStore persists the last successful post time per client key.
type CooldownStore interface {
	LastPost(ctx context.Context, key string) (time.Time, bool, error)
	MarkPost(ctx context.Context, key string, at time.Time) error
}

// Gate enforces the posting cooldown. It is a UX throttle, not a security
// control: the timestamp lives with the client.
type Gate struct {
	store  CooldownStore
	window time.Duration
	now    func() time.Time
}

// NewGate constructs a gate. A zero window disables the cooldown.
func NewGate(store CooldownStore, window time.Duration, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{store: store, window: window, now: now}
}

// Remaining returns how long key must still wait, zero when it may post.
func (g *Gate) Remaining(ctx context.Context, key string) (time.Duration, error) {
	if g == nil || g.store == nil || g.window <= 0 {
		return 0, nil
	}
	last, ok, err := g.store.LastPost(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("read last post time: %w", err)
	}
	if !ok {
		return 0, nil
	}
	elapsed := g.now().Sub(last)
	if elapsed < 0 || elapsed >= g.window {
		return 0, nil
	}
	return g.window - elapsed, nil
}

// Check returns a *CooldownError while key is cooling down.
func (g *Gate) Check(ctx context.Context, key string) error {
	remaining, err := g.Remaining(ctx, key)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return &CooldownError{Remaining: remaining}
	}
	return nil
}

// Mark records a successful post for key at the current time.
func (g *Gate) Mark(ctx context.Context, key string) error {
	if g == nil || g.store == nil || g.window <= 0 {
		return nil
	}
	return g.store.MarkPost(ctx, key, g.now())
}

// MemoryCooldownStore keeps timestamps in process memory, keyed by client.
// Entries expire once they can no longer gate a post.
type MemoryCooldownStore struct {
	cache *cache.Cache
}

// NewMemoryCooldownStore constructs a store whose entries live for window.
func NewMemoryCooldownStore(window time.Duration) *MemoryCooldownStore {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &MemoryCooldownStore{cache: cache.New(window, 2*window)}
}

func (s *MemoryCooldownStore) LastPost(_ context.Context, key string) (time.Time, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return time.Time{}, false, nil
	}
	at, ok := v.(time.Time)
	return at, ok, nil
}

func (s *MemoryCooldownStore) MarkPost(_ context.Context, key string, at time.Time) error {
	s.cache.Set(key, at, cache.DefaultExpiration)
	return nil
}

// FileCooldownStore keeps a single timestamp in a file. It serves the one
// local user of the CLI, so the key is ignored and writes are unguarded.
type FileCooldownStore struct {
	path string
}

// NewFileCooldownStore constructs a store backed by path.
func NewFileCooldownStore(path string) *FileCooldownStore {
	return &FileCooldownStore{path: path}
}

// DefaultCooldownPath returns the timestamp location under the user config directory.
func DefaultCooldownPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "guescus", "last_post"), nil
}

func (s *FileCooldownStore) LastPost(_ context.Context, _ string) (time.Time, bool, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("read cooldown file: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(raw)))
	if err != nil {
		// A corrupt timestamp must not lock the user out.
		return time.Time{}, false, nil
	}
	return at, true, nil
}

func (s *FileCooldownStore) MarkPost(_ context.Context, _ string, at time.Time) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create cooldown dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(at.UTC().Format(time.RFC3339Nano)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write cooldown file: %w", err)
	}
	return nil
}
