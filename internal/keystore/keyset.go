package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoCurrentKey is returned when a key set does not name a usable signing key.
	ErrNoCurrentKey = errors.New("keystore: no current signing key")
	// ErrDuplicateKey is returned when two keys share an id.
	ErrDuplicateKey = errors.New("keystore: duplicate key id")
)

// Key is one HMAC signing secret. Secret is base64 encoded in JSON.
type Key struct {
	ID        string    `json:"id"`
	Secret    []byte    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
}

// KeySet is the document shared between the server and the keyctl tool.
// Keys are ordered newest first.
type KeySet struct {
	Current string `json:"current"`
	Keys    []Key  `json:"keys"`
}

// ParseKeySet decodes and validates a JSON key set document.
func ParseKeySet(data []byte) (KeySet, error) {
	var set KeySet
	if err := json.Unmarshal(data, &set); err != nil {
		return KeySet{}, fmt.Errorf("decode key set: %w", err)
	}
	if err := set.Validate(); err != nil {
		return KeySet{}, err
	}
	return set, nil
}

func (s KeySet) Validate() error {
	seen := make(map[string]struct{}, len(s.Keys))
	for _, k := range s.Keys {
		if strings.TrimSpace(k.ID) == "" {
			return errors.New("keystore: key id is empty")
		}
		if len(k.Secret) == 0 {
			return fmt.Errorf("keystore: key %s has an empty secret", k.ID)
		}
		if _, ok := seen[k.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, k.ID)
		}
		seen[k.ID] = struct{}{}
	}
	if _, ok := s.Lookup(s.Current); !ok {
		return fmt.Errorf("%w: %q", ErrNoCurrentKey, s.Current)
	}
	return nil
}

func (s KeySet) Lookup(id string) (Key, bool) {
	if id == "" {
		return Key{}, false
	}
	for _, k := range s.Keys {
		if k.ID == id {
			return k, true
		}
	}
	return Key{}, false
}

// Rotate adds a new current key and keeps the newest retain keys.
// The receiver is left untouched.
func (s KeySet) Rotate(id string, secret []byte, retain int, now time.Time) (KeySet, error) {
	if strings.TrimSpace(id) == "" || len(secret) == 0 {
		return KeySet{}, errors.New("keystore: rotate needs an id and a secret")
	}
	if _, ok := s.Lookup(id); ok {
		return KeySet{}, fmt.Errorf("%w: %s", ErrDuplicateKey, id)
	}
	if retain < 1 {
		retain = 1
	}

	keys := make([]Key, 0, len(s.Keys)+1)
	keys = append(keys, Key{ID: id, Secret: append([]byte(nil), secret...), CreatedAt: now.UTC()})
	keys = append(keys, s.Keys...)
	if len(keys) > retain {
		keys = keys[:retain]
	}
	return KeySet{Current: id, Keys: keys}, nil
}

func (s KeySet) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
