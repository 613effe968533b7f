// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gcs uploads catalog exports to Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ExportContentType is set on every uploaded object.
const ExportContentType = "text/csv; charset=utf-8"

var (
	ErrBucketRequired      = errors.New("gcs bucket is not configured")
	ErrCredentialsRequired = errors.New("gcs credentials file is not configured")
	ErrCredentialsInvalid  = errors.New("gcs credentials file is not usable")
	ErrObjectRequired      = errors.New("gcs object name is empty")
	ErrClosed              = errors.New("gcs client is closed")
)

// Uploader stores objects in a bucket.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, object string) error
	URI(object string) string
	Close() error
}

var _ Uploader = (*Client)(nil)

// Client writes objects into one bucket.
type Client struct {
	bucket    *storage.BucketHandle
	closer    io.Closer
	ProjectID string
	Bucket    string
}

// NewClient returns a Client for bucket, authenticated with the service
// account key at keyPath.
//
// # Outputs
//
//   - *Client: ready for Upload
//   - error: ErrBucketRequired, ErrCredentialsRequired, ErrCredentialsInvalid,
//     or a storage client error
func NewClient(ctx context.Context, projectID, bucket, keyPath string) (*Client, error) {
	if bucket == "" {
		return nil, ErrBucketRequired
	}
	if keyPath == "" {
		return nil, ErrCredentialsRequired
	}
	if err := checkKeyFile(keyPath); err != nil {
		return nil, err
	}

	sc, err := storage.NewClient(ctx, option.WithCredentialsFile(keyPath))
	if err != nil {
		return nil, fmt.Errorf("gcs: new storage client: %w", err)
	}
	return &Client{
		bucket:    sc.Bucket(bucket),
		closer:    sc,
		ProjectID: projectID,
		Bucket:    bucket,
	}, nil
}

func checkKeyFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %s: %w", ErrCredentialsInvalid, path, err)
	case info.IsDir():
		return fmt.Errorf("%w: %s is a directory", ErrCredentialsInvalid, path)
	}
	return nil
}

// Upload copies r into object, replacing any previous content. The object
// is only committed when the whole stream was written.
func (c *Client) Upload(ctx context.Context, r io.Reader, object string) error {
	if object == "" {
		return ErrObjectRequired
	}
	if c.bucket == nil {
		return ErrClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := c.bucket.Object(object).NewWriter(ctx)
	w.ContentType = ExportContentType
	w.CacheControl = "no-cache"

	if _, err := io.Copy(w, r); err != nil {
		// cancelling before Close abandons the partial object
		cancel()
		_ = w.Close()
		return fmt.Errorf("gcs: write %s: %w", c.URI(object), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: commit %s: %w", c.URI(object), err)
	}
	return nil
}

// UploadFile uploads the file at path.
func (c *Client) UploadFile(ctx context.Context, path, object string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("gcs: open export: %w", err)
	}
	defer f.Close()
	return c.Upload(ctx, f, object)
}

// URI returns the gs:// address of object.
func (c *Client) URI(object string) string {
	return "gs://" + c.Bucket + "/" + object
}

// Close releases the storage client. Later uploads return ErrClosed.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.bucket, c.closer = nil, nil
	return err
}
