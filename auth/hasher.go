package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	hashPrefix = "argon2id"
	saltSize   = 16
	keySize    = 32

	// upper bounds for parameters read back from stored hashes
	maxMemory = 256 * 1024
	maxTime   = 64
)

type (
	Hasher struct {
		Pepper  KeyFn
		Time    uint32
		Memory  uint32
		Threads uint8
		Rand    io.Reader
	}
)

var (
	errMalformedHash = errors.New("auth: malformed secret hash")
)

// NewHasher returns a Hasher with production parameters.
// 7 passes over 10 MB are used instead of 1 pass over 64 MB of ram.
func NewHasher(pepper KeyFn) *Hasher {
	return &Hasher{
		Pepper:  pepper,
		Time:    7,
		Memory:  10 * 1024,
		Threads: 2,
		Rand:    rand.Reader,
	}
}

// Hash returns the encoded Argon2id hash of secret using a fresh salt
func (h *Hasher) Hash(ctx context.Context, secret string) (string, error) {
	salt := make([]byte, saltSize)
	r := h.Rand
	if r == nil {
		r = rand.Reader
	}
	if _, err := io.ReadFull(r, salt); err != nil {
		return "", fmt.Errorf("auth: unable to generate salt, cause %w", err)
	}
	derived, err := h.derive(ctx, secret, salt, h.Time, h.Memory, h.Threads)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v$v=%d$m=%d,t=%d,p=%d$%v$%v", hashPrefix, argon2.Version, h.Memory, h.Time, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(derived)), nil
}

// Verify checks secret against an encoded hash produced by Hash. The
// parameters stored in the hash are used, not the ones from h.
func (h *Hasher) Verify(ctx context.Context, encoded, secret string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != hashPrefix {
		return false, errMalformedHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil || version != argon2.Version {
		return false, errMalformedHash
	}
	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, errMalformedHash
	}
	if threads < 1 || time < 1 || time > maxTime || memory < 1 || memory > maxMemory {
		return false, errMalformedHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, errMalformedHash
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errMalformedHash
	}
	derived, err := h.derive(ctx, secret, salt, time, memory, threads)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(derived, expected) == 1, nil
}

func (h *Hasher) derive(ctx context.Context, secret string, salt []byte, time, memory uint32, threads uint8) ([]byte, error) {
	if h.Pepper == nil {
		return nil, errors.New("auth: hasher without pepper")
	}
	pepper, err := h.Pepper(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: unable to load pepper, cause %w", err)
	}
	defer pepper.Zero()
	mac := hmac.New(sha256.New, pepper[:])
	mac.Write([]byte(secret))
	return argon2.IDKey(mac.Sum(nil), salt, time, memory, threads, keySize), nil
}
