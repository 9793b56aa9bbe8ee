package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/andrebq/blogbox/journal"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

type (
	UnknownBackend struct {
		Name string
	}
)

var (
	// Backends lists the accepted names for OpenSessionStore
	Backends = []string{BackendMemory, BackendSQLite, BackendBolt}
)

func (u UnknownBackend) Error() string {
	return fmt.Sprintf("unknown session backend %q, expecting one of %v", u.Name, Backends)
}

// OpenSessionStore returns the session backend called name. The sqlite
// backend shares the journal, bolt needs its own file. The returned func
// releases the store and is never nil.
func OpenSessionStore(name string, j *journal.Journal, file string, ttl time.Duration) (SessionStore, func() error, error) {
	noop := func() error { return nil }
	switch name {
	case BackendMemory:
		store, err := InMemorySessionStore(ttl)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case BackendSQLite:
		if j == nil {
			return nil, noop, errors.New("sqlite sessions need an open journal")
		}
		return j.Sessions(), noop, nil
	case BackendBolt:
		if file == "" {
			return nil, noop, errors.New("bolt sessions need a file")
		}
		store, err := OpenBoltSessionStore(file)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	}
	return nil, noop, UnknownBackend{Name: name}
}
