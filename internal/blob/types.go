// Package blob stores provenance attachments: the raw .dat or CSV source
// file a stored experimental result was ingested from, keyed under the
// result id so a catalogue entry can always be traced back to its input.
package blob

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Driver identifies a concrete attachment storage backend.
type Driver string

const (
	// DriverFilesystem stores attachments under a local directory (default).
	DriverFilesystem Driver = "fs"
	// DriverS3 stores attachments in an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps attachments in process memory (tests).
	DriverMemory Driver = "memory"
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored attachment.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is the attachment storage abstraction. Put is create-only: writing
// an existing key fails rather than silently replacing provenance.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// AttachmentKey builds the canonical key of a result's source file.
func AttachmentKey(resultID int64, filename string) string {
	return fmt.Sprintf("results/%d/%s", resultID, filename)
}

// ResultPrefix is the key prefix listing every attachment of a result.
func ResultPrefix(resultID int64) string {
	return fmt.Sprintf("results/%d/", resultID)
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
