package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/andrebq/blogbox/internal/forms"
	"github.com/andrebq/blogbox/journal"
)

const (
	DefaultSessionTTL = 14 * 24 * time.Hour
)

type (
	Accounts interface {
		CreateAccount(ctx context.Context, credential, secretHash string, active bool) (journal.Account, error)
		AccountByCredential(ctx context.Context, credential string) (journal.Account, error)
		AccountByID(ctx context.Context, id int64) (journal.Account, error)
		CredentialExists(ctx context.Context, credential string) (bool, error)
	}

	Service struct {
		accounts Accounts
		sessions SessionStore
		hasher   *Hasher
		ttl      time.Duration
		rand     io.Reader
		now      func() time.Time

		dummyOnce sync.Once
		dummyHash string
	}
)

var (
	_ Accounts = (*journal.Journal)(nil)
)

func NewService(accounts Accounts, sessions SessionStore, hasher *Hasher, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{
		accounts: accounts,
		sessions: sessions,
		hasher:   hasher,
		ttl:      ttl,
		rand:     rand.Reader,
		now:      time.Now,
	}
}

func (s *Service) ValidateRegistration(ctx context.Context, v forms.Values) (forms.Result, error) {
	return ValidateRegistration(ctx, v, s.accounts.CredentialExists)
}

// Register persists a new, active account. Callers are expected to run
// ValidateRegistration first; the store still rejects duplicated
// credentials with journal.CredentialTaken.
func (s *Service) Register(ctx context.Context, credential, secret string) (journal.Account, error) {
	credential = NormalizeCredential(credential)
	hash, err := s.hasher.Hash(ctx, secret)
	if err != nil {
		return journal.Account{}, err
	}
	return s.accounts.CreateAccount(ctx, credential, hash, true)
}

// Authenticate returns the account matching credential and secret. Every
// authentication failure is reported as ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, credential, secret string) (journal.Account, error) {
	credential = NormalizeCredential(credential)
	acc, err := s.accounts.AccountByCredential(ctx, credential)
	var notFound journal.AccountNotFound
	if errors.As(err, &notFound) {
		s.burnTime(ctx, secret)
		return journal.Account{}, ErrInvalidCredentials
	} else if err != nil {
		return journal.Account{}, err
	}
	ok, err := s.hasher.Verify(ctx, acc.SecretHash, secret)
	if err != nil {
		return journal.Account{}, fmt.Errorf("unable to verify secret of account %v, cause %w", acc.ID, err)
	}
	if !ok || !acc.Active {
		return journal.Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

// burnTime runs one verification against a fixed hash so unknown
// credentials take about as long as known ones.
func (s *Service) burnTime(ctx context.Context, secret string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(ctx, "blogbox dummy secret")
	})
	if s.dummyHash == "" {
		return
	}
	s.hasher.Verify(ctx, s.dummyHash, secret)
}

func (s *Service) StartSession(ctx context.Context, accountID int64) (journal.Session, error) {
	token, err := NewToken(s.rand)
	if err != nil {
		return journal.Session{}, err
	}
	sess := journal.Session{
		Token:     token,
		AccountID: accountID,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	err = s.sessions.Create(ctx, sess)
	if err != nil {
		return journal.Session{}, fmt.Errorf("unable to create session for account %v, cause %w", accountID, err)
	}
	return sess, nil
}

func (s *Service) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Destroy(ctx, token)
}

// Identify resolves a session token into an Identity. Missing, expired or
// orphaned sessions and inactive accounts are anonymous.
func (s *Service) Identify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Anonymous(), nil
	}
	sess, found, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return Anonymous(), err
	}
	if !found {
		return Anonymous(), nil
	}
	acc, err := s.accounts.AccountByID(ctx, sess.AccountID)
	var notFound journal.AccountNotFound
	if errors.As(err, &notFound) {
		return Anonymous(), nil
	} else if err != nil {
		return Anonymous(), err
	}
	if !acc.Active {
		return Anonymous(), nil
	}
	return Authenticated(acc, token), nil
}

func (s *Service) SessionTTL() time.Duration {
	return s.ttl
}
