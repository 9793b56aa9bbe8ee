package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andrebq/blogbox/journal"
	"go.etcd.io/bbolt"
)

var (
	sessionsBucket = []byte("sessions")
)

type (
	// BoltSessionStore keeps sessions in a bbolt file so they survive
	// restarts without touching the journal.
	BoltSessionStore struct {
		db  *bbolt.DB
		now func() time.Time
	}
)

func OpenBoltSessionStore(file string) (*BoltSessionStore, error) {
	db, err := bbolt.Open(file, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("unable to open session file %v, cause %w", file, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to prepare session file %v, cause %w", file, err)
	}
	return &BoltSessionStore{db: db, now: time.Now}, nil
}

func (b *BoltSessionStore) Create(ctx context.Context, s journal.Session) error {
	if s.Token == "" || s.AccountID == 0 {
		return errors.New("auth: session without token or account")
	}
	buf, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("auth: unable to encode session, cause %w", err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(s.Token), buf)
	})
}

func (b *BoltSessionStore) Lookup(ctx context.Context, token string) (journal.Session, bool, error) {
	var s journal.Session
	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		buf := tx.Bucket(sessionsBucket).Get([]byte(token))
		if buf == nil {
			return nil
		}
		found = true
		return json.Unmarshal(buf, &s)
	})
	if err != nil {
		return journal.Session{}, false, fmt.Errorf("auth: unable to load session, cause %w", err)
	}
	if !found {
		return journal.Session{}, false, nil
	}
	if !s.ExpiresAt.After(b.now()) {
		return journal.Session{}, false, b.Destroy(ctx, token)
	}
	return s, true, nil
}

func (b *BoltSessionStore) Destroy(ctx context.Context, token string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(token))
	})
}

func (b *BoltSessionStore) Close() error {
	return b.db.Close()
}
