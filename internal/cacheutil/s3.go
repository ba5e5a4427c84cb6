// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	awsx "github.com/staranto/cachefetch/internal/aws"
)

// S3API is the subset of the S3 client the store needs.
type S3API interface {
	GetObject(ctx context.Context, in *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3v2.DeleteObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3v2.ListObjectsV2Input, optFns ...func(*s3v2.Options)) (*s3v2.ListObjectsV2Output, error)
}

// S3Store keeps one JSON envelope per key as <prefix>/<md5(key)>.json.
type S3Store struct {
	client S3API
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Store wraps an existing client.
func NewS3Store(client S3API, bucket, prefix string) (*S3Store, error) {
	if bucket == "" {
		return nil, ErrNoBucket
	}
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}, nil
}

// OpenS3Store loads AWS config from the environment (plus cfg overrides) and
// returns a store backed by cfg.Bucket.
func OpenS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	awsCfg, err := awsx.LoadAWSConfig(ctx,
		awsx.WithProfile(cfg.Profile),
		awsx.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := awsx.NewS3(awsCfg, awsx.WithS3Endpoint(cfg.Endpoint))
	return NewS3Store(client, cfg.Bucket, cfg.Prefix)
}

func (s *S3Store) objectKey(key string) string {
	return path.Join(s.prefix, encodeKey(key)+".json")
}

// Get returns the live value for key.
func (s *S3Store) Get(ctx context.Context, key string) (string, bool, error) {
	e, ok, err := s.fetch(ctx, s.objectKey(key))
	if err != nil || !ok {
		return "", false, err
	}
	if e.Expired(s.now()) {
		_ = s.Delete(ctx, key)
		return "", false, nil
	}
	return e.Value, true, nil
}

// Set uploads the entry for key.
func (s *S3Store) Set(ctx context.Context, key, value string, ttl time.Duration, tag string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	b, err := marshalEntry(newEntry(key, value, ttl, tag, s.now()))
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:      awsv2.String(s.bucket),
		Key:         awsv2.String(s.objectKey(key)),
		Body:        bytes.NewReader(b),
		ContentType: awsv2.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Delete removes the object for key. S3 deletes are idempotent.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	return s.deleteObject(ctx, s.objectKey(key))
}

// Entries lists the live entries beneath the prefix.
func (s *S3Store) Entries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.each(ctx, func(objKey string, e Entry, _ time.Time) error {
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// DeleteTag removes every entry stored with tag.
func (s *S3Store) DeleteTag(ctx context.Context, tag string) (int, error) {
	var n int
	err := s.each(ctx, func(objKey string, e Entry, _ time.Time) error {
		if e.Tag != tag {
			return nil
		}
		if err := s.deleteObject(ctx, objKey); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// Purge removes objects last modified more than olderThan ago. Expired
// entries are removed while listing.
func (s *S3Store) Purge(ctx context.Context, olderThan time.Duration) (int, error) {
	var n int
	now := s.now()
	err := s.each(ctx, func(objKey string, _ Entry, modified time.Time) error {
		if olderThan <= 0 || now.Sub(modified) <= olderThan {
			return nil
		}
		if err := s.deleteObject(ctx, objKey); err != nil {
			return err
		}
		log.Debugf("removed cache object %s", objKey)
		n++
		return nil
	})
	return n, err
}

// each visits every readable, unexpired entry. Expired ones are deleted and
// not passed to fn.
func (s *S3Store) each(ctx context.Context, fn func(string, Entry, time.Time) error) error {
	input := &s3v2.ListObjectsV2Input{Bucket: awsv2.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = awsv2.String(s.prefix + "/")
	}

	now := s.now()
	pager := s3v2.NewListObjectsV2Paginator(s.client, input)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list cache: %w", err)
		}
		for _, obj := range page.Contents {
			objKey := awsv2.ToString(obj.Key)
			if !strings.HasSuffix(objKey, ".json") {
				continue
			}
			e, ok, err := s.fetch(ctx, objKey)
			if err != nil {
				log.WithError(err).Debugf("skipping unreadable cache object %s", objKey)
				continue
			}
			if !ok {
				continue
			}
			if e.Expired(now) {
				_ = s.deleteObject(ctx, objKey)
				continue
			}
			if err := fn(objKey, e, awsv2.ToTime(obj.LastModified)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *S3Store) fetch(ctx context.Context, objKey string) (Entry, bool, error) {
	out, err := s.client.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(s.bucket),
		Key:    awsv2.String(objKey),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("failed to read cache: %w", err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read cache: %w", err)
	}
	e, err := unmarshalEntry(b)
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (s *S3Store) deleteObject(ctx context.Context, objKey string) error {
	_, err := s.client.DeleteObject(ctx, &s3v2.DeleteObjectInput{
		Bucket: awsv2.String(s.bucket),
		Key:    awsv2.String(objKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

var (
	_ Store      = (*S3Store)(nil)
	_ Maintainer = (*S3Store)(nil)
)
