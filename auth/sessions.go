package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/andrebq/blogbox/journal"
)

type (
	// SessionStore maps opaque tokens to accounts. Implementations must
	// report expired sessions as not found.
	SessionStore interface {
		Create(ctx context.Context, s journal.Session) error
		Lookup(ctx context.Context, token string) (journal.Session, bool, error)
		Destroy(ctx context.Context, token string) error
	}
)

var (
	_ SessionStore = (*journal.SessionTable)(nil)
	_ SessionStore = (*MemorySessionStore)(nil)
	_ SessionStore = (*BoltSessionStore)(nil)
)

// NewToken returns 32 random bytes encoded as base64url
func NewToken(rand io.Reader) (string, error) {
	buf := make([]byte, 32)
	_, err := io.ReadFull(rand, buf)
	if err != nil {
		return "", fmt.Errorf("auth: unable to generate session token, cause %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
