package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/andrebq/blogbox/journal"
)

type (
	// MemorySessionStore keeps sessions in a bigcache instance.
	MemorySessionStore struct {
		cache *bigcache.BigCache
		now   func() time.Time
	}
)

// InMemorySessionStore returns an empty MemorySessionStore. Sessions are
// lost on restart or when bigcache evicts them, in which case the user
// simply has to login again.
func InMemorySessionStore(ttl time.Duration) (*MemorySessionStore, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Verbose = false
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("auth: unable to create session cache, cause %w", err)
	}
	return &MemorySessionStore{
		cache: cache,
		now:   time.Now,
	}, nil
}

func (m *MemorySessionStore) Create(ctx context.Context, s journal.Session) error {
	if s.Token == "" || s.AccountID == 0 {
		return errors.New("auth: session without token or account")
	}
	buf, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("auth: unable to encode session, cause %w", err)
	}
	return m.cache.Set(s.Token, buf)
}

func (m *MemorySessionStore) Lookup(ctx context.Context, token string) (journal.Session, bool, error) {
	buf, err := m.cache.Get(token)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return journal.Session{}, false, nil
	} else if err != nil {
		return journal.Session{}, false, err
	}
	var s journal.Session
	err = json.Unmarshal(buf, &s)
	if err != nil {
		return journal.Session{}, false, fmt.Errorf("auth: unable to decode session, cause %w", err)
	}
	if !s.ExpiresAt.After(m.now()) {
		return journal.Session{}, false, m.Destroy(ctx, token)
	}
	return s, true, nil
}

func (m *MemorySessionStore) Destroy(ctx context.Context, token string) error {
	err := m.cache.Delete(token)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (m *MemorySessionStore) Close() error {
	return m.cache.Close()
}
