package persistence

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/vitrinehq/vitrine/internal/config"
	"github.com/vitrinehq/vitrine/internal/domain/entity"
)

// Presigned URLs expire after 15 minutes; a PUT issued later fails at the
// storage backend and is surfaced to the caller rather than re-presigned.
const presignTTL = 15 * time.Minute

type Presigner struct {
	s3     *s3.S3
	bucket string
}

func NewPresigner(cfg *config.StorageConfig) *Presigner {
	sess := session.Must(session.NewSession(&aws.Config{
		Endpoint:    aws.String(cfg.Endpoint),
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	}))
	return &Presigner{s3.New(sess), cfg.Bucket}
}

// Initiates a multipart upload and return an upload ID from the remote storage.
func (p *Presigner) CreateMultipart(key, contentType string) (string, error) {
	out, err := p.s3.CreateMultipartUpload(&s3.CreateMultipartUploadInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return *out.UploadId, nil
}

// Presign a single-part PUT URL for the given upload.
func (p *Presigner) PresignPart(key, uploadId string, partNumber int64) (string, error) {
	req, _ := p.s3.UploadPartRequest(&s3.UploadPartInput{
		Bucket:     aws.String(p.bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadId),
		PartNumber: aws.Int64(partNumber),
	})
	return req.Presign(presignTTL)
}

// Mark the multipart upload as completed for the remote storage. Returns the
// location reported by the backend.
func (p *Presigner) CompleteMultipart(key, uploadId string, parts []*entity.Part) (string, error) {
	fileParts := make([]*s3.CompletedPart, 0, len(parts))
	for _, part := range parts {
		fileParts = append(fileParts, &s3.CompletedPart{
			ETag:       aws.String(part.ETag),
			PartNumber: aws.Int64(part.PartNumber),
		})
	}
	out, err := p.s3.CompleteMultipartUpload(&s3.CompleteMultipartUploadInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		MultipartUpload: &s3.CompletedMultipartUpload{
			Parts: fileParts,
		},
		UploadId: aws.String(uploadId),
	})
	if err != nil {
		return "", err
	}
	return aws.StringValue(out.Location), nil
}

// Abort the multipart upload and discard any stored parts.
func (p *Presigner) AbortMultipart(key, uploadId string) error {
	_, err := p.s3.AbortMultipartUpload(&s3.AbortMultipartUploadInput{
		Bucket:   aws.String(p.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadId),
	})
	return err
}

// Presign a direct single-shot PUT URL for small objects.
func (p *Presigner) PresignPut(key, contentType string) (string, error) {
	req, _ := p.s3.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	return req.Presign(presignTTL)
}
