// Command keyctl manages the signing key set shared with alertify servers.
//
//	keyctl -bucket secrets rotate
//	keyctl -bucket secrets show
//
// Flag defaults come from the ALERTIFY_KEYS_* and ALERTIFY_AWS_* settings.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/sirupsen/logrus"

	"alertify/internal/config"
	"alertify/internal/keystore"
)

type options struct {
	command string
	s3      keystore.S3Config
	retain  int
	timeout time.Duration
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Read()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	opts, err := parseFlags(os.Args[1:], cfg, os.Stderr)
	if err != nil {
		logger.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	client, err := keystore.NewS3Client(ctx, opts.s3)
	if err != nil {
		logger.Fatalf("setup s3: %v", err)
	}
	source := keystore.NewS3Source(client, opts.s3.Bucket, opts.s3.Object)

	switch opts.command {
	case "rotate":
		set, location, err := rotate(ctx, source, manager.NewUploader(client), opts.s3.Bucket, opts.s3.Object, opts.retain, time.Now())
		if err != nil {
			logger.Fatalf("rotate: %v", err)
		}
		logger.WithFields(logrus.Fields{"kid": set.Current, "keys": len(set.Keys)}).Infof("published %s", location)
	case "show":
		set, err := source.Load(ctx)
		if err != nil {
			logger.Fatalf("load: %v", err)
		}
		describe(os.Stdout, set)
	}
}

func parseFlags(args []string, cfg config.Config, output io.Writer) (options, error) {
	fs := flag.NewFlagSet("keyctl", flag.ContinueOnError)
	fs.SetOutput(output)

	var opts options
	fs.StringVar(&opts.s3.Bucket, "bucket", cfg.Keys.Bucket, "S3 bucket holding the key set")
	fs.StringVar(&opts.s3.Object, "object", cfg.Keys.Object, "S3 object key of the key set")
	fs.StringVar(&opts.s3.Region, "region", cfg.Keys.Region, "AWS region")
	fs.StringVar(&opts.s3.Endpoint, "endpoint", cfg.Keys.Endpoint, "custom S3 endpoint")
	fs.StringVar(&opts.s3.Profile, "profile", cfg.AWS.Profile, "AWS shared config profile")
	fs.IntVar(&opts.retain, "retain", cfg.Keys.Retain, "number of keys kept after rotation")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall operation timeout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if fs.NArg() != 1 {
		return options{}, fmt.Errorf("usage: keyctl [flags] rotate|show")
	}
	opts.command = fs.Arg(0)
	if opts.command != "rotate" && opts.command != "show" {
		return options{}, fmt.Errorf("unknown command %q", opts.command)
	}
	if opts.s3.Bucket == "" {
		return options{}, fmt.Errorf("bucket is required")
	}
	return opts, nil
}
