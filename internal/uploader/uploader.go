// Package uploader moves app binaries and videos into object storage through
// the vitrine control plane. Small files go up with a single presigned PUT;
// large files are split into parts and uploaded through a multipart session
// with bounded concurrency. Callers get back one public URL or one error.
package uploader

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Uploader routes uploads between the direct and multipart strategies.
type Uploader struct {
	api            presignAPI
	parts          *PartUploader
	retry          RetryPolicy
	hclient        *http.Client
	chunkSize      int64
	threshold      int64
	maxSize        int64
	maxConcurrency int
	now            func() time.Time
}

type Option func(*Uploader)

// WithChunkSize sets the multipart part size.
func WithChunkSize(n int64) Option {
	return func(u *Uploader) { u.chunkSize = n }
}

// WithLargeFileThreshold sets the size at which uploads switch to multipart.
func WithLargeFileThreshold(n int64) Option {
	return func(u *Uploader) { u.threshold = n }
}

// WithMaxConcurrency bounds how many part uploads run at once.
func WithMaxConcurrency(n int) Option {
	return func(u *Uploader) { u.maxConcurrency = n }
}

// WithMaxUploadSize sets the largest file the uploader accepts.
func WithMaxUploadSize(n int64) Option {
	return func(u *Uploader) { u.maxSize = n }
}

// WithRetryPolicy sets the retry policy applied to individual part uploads.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(u *Uploader) { u.retry = p }
}

// WithHTTPClient replaces the HTTP client used for both control-plane calls
// and presigned PUTs.
func WithHTTPClient(hclient *http.Client) Option {
	return func(u *Uploader) { u.hclient = hclient }
}

// New returns an Uploader talking to the control plane at host.
func New(host string, opts ...Option) (*Uploader, error) {
	u := &Uploader{
		hclient:        &http.Client{},
		chunkSize:      DefaultChunkSize,
		threshold:      DefaultLargeFileThreshold,
		maxSize:        DefaultMaxUploadSize,
		maxConcurrency: DefaultMaxConcurrency,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	api, err := NewClient(host, u.hclient)
	if err != nil {
		return nil, err
	}
	u.api = api
	u.parts = &PartUploader{hclient: u.hclient}
	return u, nil
}

// Upload sends data to object storage and returns its public URL. The folder
// may be empty, in which case it is chosen by sniffing the content type.
// Exactly one initial zero snapshot is emitted before any network call, and
// exactly one terminal 100% snapshot on success; a failed upload emits no
// terminal snapshot and leaves no multipart session behind.
func (u *Uploader) Upload(ctx context.Context, fileName, contentType string, data []byte, folder string, onProgress ProgressFunc) (string, error) {
	if fileName == "" {
		return "", newUploadError(&ValidationError{Msg: "file name is required"})
	}
	size := int64(len(data))
	if size == 0 {
		return "", newUploadError(&ValidationError{Msg: "file is empty"})
	}
	if u.maxSize > 0 && size > u.maxSize {
		return "", newUploadError(&SizeError{Size: size, Limit: u.maxSize})
	}
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	if folder == "" {
		folder = FolderFor(contentType)
	}

	key := objectKeyAt(folder, fileName, u.now())
	plan := PlanUpload(size, u.chunkSize, u.threshold)
	agg := newAggregator(size, onProgress)
	agg.start()

	var publicURL string
	var err error
	if plan.Strategy == Direct {
		publicURL, err = u.direct(ctx, key, contentType, data, agg)
	} else {
		co := &coordinator{api: u.api, parts: u.parts, retry: u.retry, maxConcurrency: u.maxConcurrency}
		publicURL, err = co.upload(ctx, key, contentType, data, plan, agg)
	}
	if err != nil {
		return "", newUploadError(err)
	}
	agg.done()
	return publicURL, nil
}

// UploadFile is a convenience wrapper that reads path from disk, sniffs its
// content type and uploads it.
func (u *Uploader) UploadFile(ctx context.Context, name, folder string, onProgress ProgressFunc) (string, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return "", newUploadError(&ValidationError{Msg: fmt.Sprintf("cannot read %s: %v", name, err)})
	}
	return u.Upload(ctx, filepath.Base(name), "", data, folder, onProgress)
}

func (u *Uploader) direct(ctx context.Context, key, contentType string, data []byte, agg *aggregator) (string, error) {
	putURL, publicURL, err := u.api.PresignDirect(ctx, key, contentType, int64(len(data)))
	if err != nil {
		return "", err
	}
	_, err = u.retry.Upload(ctx, u.parts, putURL, contentType, data, func(sent int64) {
		agg.update(1, sent)
	})
	if err != nil {
		return "", err
	}
	return publicURL, nil
}

// objectKeyAt builds the storage key {folder}/{unixMillis}_{token}.{ext}.
// The random token keeps keys unique even for uploads landing in the same
// millisecond.
func objectKeyAt(folder, fileName string, now time.Time) string {
	ext := strings.TrimPrefix(path.Ext(fileName), ".")
	if ext == "" {
		ext = "bin"
	}
	token := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("%s/%d_%s.%s", folder, now.UnixMilli(), token, ext)
}

// FolderFor picks the storage folder for content of the given MIME type:
// videos land in videos/uploads, installer-like binaries in apps, and
// everything else in uploads.
func FolderFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return "videos/uploads"
	case isInstallerType(contentType):
		return "apps"
	}
	return "uploads"
}

func isInstallerType(contentType string) bool {
	for _, t := range []string{
		"application/vnd.android.package-archive",
		"application/vnd.microsoft.portable-executable",
		"application/x-msdownload",
		"application/x-ms-installer",
		"application/x-apple-diskimage",
		"application/zip",
	} {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}
