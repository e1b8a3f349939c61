package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertify/internal/config"
	"alertify/internal/keystore"
)

type memSource struct {
	set keystore.KeySet
	err error
}

func (m *memSource) Load(context.Context) (keystore.KeySet, error) { return m.set, m.err }

type memUploader struct {
	body []byte
}

func (m *memUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.body = data
	return &manager.UploadOutput{}, nil
}

func TestRotate_StartsNewSetWhenMissing(t *testing.T) {
	src := &memSource{err: fmt.Errorf("get: %w", &types.NoSuchKey{})}
	up := &memUploader{}

	set, location, err := rotate(context.Background(), src, up, "secrets", "keys.json", 3, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "s3://secrets/keys.json", location)
	require.Len(t, set.Keys, 1)
	assert.Len(t, set.Keys[0].Secret, secretSize)

	published, err := keystore.ParseKeySet(up.body)
	require.NoError(t, err)
	assert.Equal(t, set.Current, published.Current)
}

func TestRotate_KeepsRetainedKeys(t *testing.T) {
	base, err := keystore.KeySet{}.Rotate("k1", []byte("one"), 3, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	src := &memSource{set: base}
	up := &memUploader{}

	set, _, err := rotate(context.Background(), src, up, "secrets", "keys.json", 2, time.Now())
	require.NoError(t, err)
	require.Len(t, set.Keys, 2)
	assert.NotEqual(t, "k1", set.Current)
	assert.Equal(t, "k1", set.Keys[1].ID)
}

func TestRotate_LoadFailure(t *testing.T) {
	src := &memSource{err: errors.New("access denied")}
	up := &memUploader{}

	_, _, err := rotate(context.Background(), src, up, "secrets", "keys.json", 2, time.Now())
	assert.ErrorContains(t, err, "access denied")
	assert.Nil(t, up.body)
}

func TestDescribe_HidesSecrets(t *testing.T) {
	set, err := keystore.KeySet{}.Rotate("k1", []byte("super-secret"), 2, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var buf bytes.Buffer
	describe(&buf, set)
	assert.Equal(t, "* k1  created 2024-01-01T00:00:00Z\n", buf.String())
	assert.NotContains(t, buf.String(), "super-secret")
}

func TestParseFlags_DefaultsFromConfig(t *testing.T) {
	var cfg config.Config
	cfg.Keys.Bucket = "secrets"
	cfg.Keys.Object = "alertify/keys.json"
	cfg.Keys.Region = "eu-west-1"
	cfg.Keys.Retain = 4
	cfg.AWS.Profile = "ops"

	opts, err := parseFlags([]string{"rotate"}, cfg, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "rotate", opts.command)
	assert.Equal(t, keystore.S3Config{
		Bucket:  "secrets",
		Object:  "alertify/keys.json",
		Region:  "eu-west-1",
		Profile: "ops",
	}, opts.s3)
	assert.Equal(t, 4, opts.retain)

	opts, err = parseFlags([]string{"-bucket", "other", "-retain", "2", "show"}, cfg, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "show", opts.command)
	assert.Equal(t, "other", opts.s3.Bucket)
	assert.Equal(t, 2, opts.retain)
}

func TestParseFlags_EnvThroughConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ALERTIFY_KEYS_BUCKET", "from-env")
	t.Setenv("ALERTIFY_KEYS_REGION", "ap-south-1")

	cfg, err := config.Read()
	require.NoError(t, err)

	opts, err := parseFlags([]string{"show"}, cfg, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "from-env", opts.s3.Bucket)
	assert.Equal(t, "ap-south-1", opts.s3.Region)
	assert.Equal(t, "alertify/keys.json", opts.s3.Object)
	assert.Equal(t, 3, opts.retain)
}

func TestParseFlags_Errors(t *testing.T) {
	var cfg config.Config

	_, err := parseFlags([]string{"rotate"}, cfg, io.Discard)
	assert.ErrorContains(t, err, "bucket is required")

	cfg.Keys.Bucket = "secrets"
	_, err = parseFlags(nil, cfg, io.Discard)
	assert.ErrorContains(t, err, "usage")

	_, err = parseFlags([]string{"purge"}, cfg, io.Discard)
	assert.ErrorContains(t, err, "unknown command")

	_, err = parseFlags([]string{"-nope", "show"}, cfg, io.Discard)
	assert.Error(t, err)
}
