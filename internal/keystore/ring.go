package keystore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Ring is the in-memory view of the signing keys used by the token service.
type Ring struct {
	source Source
	logger logrus.FieldLogger

	mu  sync.RWMutex
	set KeySet
}

// NewRing performs the initial load; a ring with no keys is an error.
func NewRing(ctx context.Context, source Source, logger logrus.FieldLogger) (*Ring, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := &Ring{source: source, logger: logger}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Ring) Current() (Key, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.set.Lookup(r.set.Current)
	if !ok {
		return Key{}, ErrNoCurrentKey
	}
	return key, nil
}

func (r *Ring) Lookup(id string) (Key, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.Lookup(id)
}

// Reload replaces the key set. On failure the previous keys stay in place.
func (r *Ring) Reload(ctx context.Context) error {
	set, err := r.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load key set: %w", err)
	}
	if err := set.Validate(); err != nil {
		return fmt.Errorf("load key set: %w", err)
	}

	r.mu.Lock()
	r.set = set
	r.mu.Unlock()
	return nil
}

// Watch reloads the key set every interval until ctx is done.
func (r *Ring) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Reload(ctx); err != nil {
				r.logger.WithError(err).Warn("key ring reload failed, keeping previous keys")
				continue
			}
			r.mu.RLock()
			current := r.set.Current
			r.mu.RUnlock()
			r.logger.WithField("kid", current).Debug("key ring reloaded")
		}
	}
}
