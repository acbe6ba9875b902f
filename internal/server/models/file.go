package models

import "time"

// ProjectFile is an arbitrary attachment of a project (contracts, source
// packages). Its bytes live in object storage under StorageKey and are
// reachable only through signed links.
type ProjectFile struct {
	ID          string
	ProjectID   string
	Name        string
	StorageKey  string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

// UploadSlot instructs the uploader to PUT bytes to a presigned URL.
type UploadSlot struct {
	Key string
	URL string
}
