package auth

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testKey = "blmHX4evD5FygUEa3EWxjzuAPF7lC4sKuWBrhgti/20="

func testHasher(t *testing.T) *Hasher {
	keyfn, err := KeyFNFromString(testKey)
	require.NoError(t, err)
	return &Hasher{Pepper: keyfn, Time: 1, Memory: 64, Threads: 1, Rand: rand.Reader}
}

func testMemStore(t *testing.T) (*MemorySessionStore, func()) {
	store, err := InMemorySessionStore(time.Hour)
	require.NoError(t, err)
	return store, func() { store.Close() }
}

func background() context.Context {
	return context.Background()
}
