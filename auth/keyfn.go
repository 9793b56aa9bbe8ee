package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/awnumar/memguard"
)

const (
	PepperEnvVar = "BLOGBOX_AUTH_PEPPER"
)

type (
	Key [32]byte

	KeyFn func(context.Context) (*Key, error)
)

func (k *Key) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// KeyFNFromEnv reads a base64 encoded key from varname and clears the
// variable right after, so child processes never see it.
func KeyFNFromEnv(varname string, getfn func(string) string, setfn func(string, string) error) (KeyFn, error) {
	if getfn == nil {
		getfn = os.Getenv
	}
	if setfn == nil {
		setfn = os.Setenv
	}
	val := getfn(varname)
	setfn(varname, "")
	return KeyFNFromString(val)
}

// KeyFNFromString decodes val and keeps the key sealed in a memguard
// enclave, every call to the returned KeyFn gets its own copy.
func KeyFNFromString(val string) (KeyFn, error) {
	var rootKey Key
	buf, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return nil, fmt.Errorf("auth: cannot decode string to valid key, cause %v", err)
	} else if len(buf) != len(rootKey) {
		return nil, fmt.Errorf("auth: decoded key has %v bytes expecting %v bytes", len(buf), len(rootKey))
	}
	// NewEnclave wipes buf
	enclave := memguard.NewEnclave(buf)
	return func(_ context.Context) (*Key, error) {
		lb, err := enclave.Open()
		if err != nil {
			return nil, fmt.Errorf("auth: unable to open key enclave, cause %w", err)
		}
		defer lb.Destroy()
		var k Key
		copy(k[:], lb.Bytes())
		return &k, nil
	}, nil
}

// GenerateKey returns a new random key encoded as base64, suitable for
// KeyFNFromEnv
func GenerateKey(rand io.Reader) (string, error) {
	var k Key
	_, err := io.ReadFull(rand, k[:])
	if err != nil {
		return "", fmt.Errorf("auth: unable to generate key, cause %w", err)
	}
	defer k.Zero()
	return base64.StdEncoding.EncodeToString(k[:]), nil
}
