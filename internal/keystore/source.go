package keystore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MinSecretSize is the shortest HMAC secret accepted from configuration.
const MinSecretSize = 32

// Source loads the current key set from wherever it is kept.
type Source interface {
	Load(ctx context.Context) (KeySet, error)
}

// StaticSource serves a single key taken from configuration.
type StaticSource struct {
	ID     string
	Secret string
}

func (s StaticSource) Load(context.Context) (KeySet, error) {
	if strings.TrimSpace(s.Secret) == "" {
		return KeySet{}, errors.New("keystore: static secret is required")
	}
	if len(s.Secret) < MinSecretSize {
		return KeySet{}, fmt.Errorf("keystore: static secret must be at least %d bytes", MinSecretSize)
	}
	id := s.ID
	if id == "" {
		id = "default"
	}
	return KeySet{
		Current: id,
		Keys:    []Key{{ID: id, Secret: []byte(s.Secret)}},
	}, nil
}
