package core

import (
	"context"
	"io"
)

// File store buckets
const (
	BucketPayslips            = "payslips"
	BucketMedicalCertificates = "medical-certificates"
	BucketAnnouncements       = "announcements"
)

// ErrFileMissing is returned when a stored reference no longer resolves to a file.
var ErrFileMissing = NewNotFoundError("file not found")

type (
	// Upload is a validated incoming file.
	Upload struct {
		Filename    string
		ContentType string
		Size        int64
		Content     io.Reader
	}

	// FileStore persists uploaded files and resolves them back from their reference (a URL path).
	FileStore interface {
		Save(ctx context.Context, bucket, name string, r io.Reader) (ref string, err error)
		Open(ref string) (io.ReadCloser, error)
		Remove(ref string) error
	}
)
