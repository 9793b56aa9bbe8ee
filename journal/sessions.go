package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type (
	Session struct {
		Token     string    `json:"token"`
		AccountID int64     `json:"account_id"`
		ExpiresAt time.Time `json:"expires_at"`
	}

	// SessionTable keeps sessions in the same database as the accounts,
	// useful when sessions must survive restarts and no other store is
	// available.
	SessionTable struct {
		j *Journal
	}
)

func (j *Journal) Sessions() *SessionTable {
	return &SessionTable{j: j}
}

func (s *SessionTable) Create(ctx context.Context, sess Session) error {
	if sess.Token == "" || sess.AccountID == 0 {
		return errors.New("journal: session without token or account")
	}
	if !sess.ExpiresAt.After(s.j.now()) {
		return errors.New("journal: session expires_at must be in the future")
	}
	_, err := s.j.db.ExecContext(ctx, `insert into sessions(token, account_id, expires_at) values (?, ?, ?)`,
		sess.Token, sess.AccountID, sess.ExpiresAt.UnixNano())
	if err != nil {
		return fmt.Errorf("unable to store session, cause %w", err)
	}
	return nil
}

// Lookup returns the live session for token. Expired sessions are removed
// and reported as missing.
func (s *SessionTable) Lookup(ctx context.Context, token string) (Session, bool, error) {
	var sess Session
	var expires int64
	err := s.j.db.QueryRowContext(ctx, `select token, account_id, expires_at from sessions where token = ?`, token).
		Scan(&sess.Token, &sess.AccountID, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, nil
	} else if err != nil {
		return Session{}, false, fmt.Errorf("unable to load session, cause %w", err)
	}
	sess.ExpiresAt = time.Unix(0, expires).UTC()
	if !sess.ExpiresAt.After(s.j.now()) {
		return Session{}, false, s.Destroy(ctx, token)
	}
	return sess, true, nil
}

func (s *SessionTable) Destroy(ctx context.Context, token string) error {
	_, err := s.j.db.ExecContext(ctx, `delete from sessions where token = ?`, token)
	if err != nil {
		return fmt.Errorf("unable to delete session, cause %w", err)
	}
	return nil
}
