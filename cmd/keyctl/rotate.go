package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"alertify/internal/keystore"
)

const secretSize = 32

// rotate loads the published key set, adds a fresh key and publishes the
// result. A missing object starts a new set.
func rotate(ctx context.Context, source keystore.Source, up keystore.Uploader, bucket, object string, retain int, now time.Time) (keystore.KeySet, string, error) {
	current, err := source.Load(ctx)
	if err != nil {
		var missing *types.NoSuchKey
		if !errors.As(err, &missing) {
			return keystore.KeySet{}, "", err
		}
		current = keystore.KeySet{}
	}

	secret := make([]byte, secretSize)
	if _, err := rand.Read(secret); err != nil {
		return keystore.KeySet{}, "", fmt.Errorf("generate secret: %w", err)
	}

	next, err := current.Rotate(uuid.NewString(), secret, retain, now)
	if err != nil {
		return keystore.KeySet{}, "", err
	}

	location, err := keystore.Publish(ctx, up, bucket, object, next)
	if err != nil {
		return keystore.KeySet{}, "", err
	}
	return next, location, nil
}

// describe prints key ids and ages, never secrets.
func describe(w io.Writer, set keystore.KeySet) {
	for _, k := range set.Keys {
		marker := " "
		if k.ID == set.Current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s  created %s\n", marker, k.ID, k.CreatedAt.Format(time.RFC3339))
	}
}
