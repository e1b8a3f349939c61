package keystore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// maxKeySetSize bounds the key set document read from S3.
const maxKeySetSize = 1 << 20

// ObjectGetter is the part of *s3.Client used by S3Source.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Uploader is the part of *manager.Uploader used by Publish.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Config selects the bucket and client options for an S3 backed key set.
type S3Config struct {
	Bucket   string
	Object   string
	Region   string
	Endpoint string
	Profile  string
}

// NewS3Client builds an S3 client; a custom endpoint switches to path style
// addressing for S3 compatible stores.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Source reads the key set document from an S3 object.
type S3Source struct {
	client ObjectGetter
	bucket string
	object string
}

func NewS3Source(client ObjectGetter, bucket, object string) *S3Source {
	return &S3Source{client: client, bucket: bucket, object: object}
}

func (s *S3Source) Load(ctx context.Context) (KeySet, error) {
	if s.bucket == "" || s.object == "" {
		return KeySet{}, fmt.Errorf("keystore: s3 bucket and object are required")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.object),
	})
	if err != nil {
		return KeySet{}, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.object, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxKeySetSize))
	if err != nil {
		return KeySet{}, fmt.Errorf("read s3://%s/%s: %w", s.bucket, s.object, err)
	}
	return ParseKeySet(data)
}

// Publish validates set and writes it to bucket/object.
func Publish(ctx context.Context, uploader Uploader, bucket, object string, set KeySet) (string, error) {
	if bucket == "" || object == "" {
		return "", fmt.Errorf("keystore: s3 bucket and object are required")
	}
	if err := set.Validate(); err != nil {
		return "", err
	}
	data, err := set.Marshal()
	if err != nil {
		return "", fmt.Errorf("encode key set: %w", err)
	}

	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(object),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("upload key set: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", bucket, object), nil
}
