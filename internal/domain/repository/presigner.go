package repository

import "github.com/vitrinehq/vitrine/internal/domain/entity"

// Presigner issues time-limited write URLs against the object store without
// ever handing storage credentials to the caller.
type Presigner interface {
	// Initiates a multipart upload and return an upload ID from the remote storage.
	CreateMultipart(key, contentType string) (string, error)
	// Presign a single-part PUT URL for the given upload.
	PresignPart(key, uploadId string, partNumber int64) (string, error)
	// Mark the multipart upload as completed for the remote storage.
	CompleteMultipart(key, uploadId string, parts []*entity.Part) (string, error)
	// Abort the multipart upload and discard any stored parts.
	AbortMultipart(key, uploadId string) error
	// Presign a direct single-shot PUT URL for small objects.
	PresignPut(key, contentType string) (string, error)
}
