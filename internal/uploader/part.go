package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// PartUploader performs one PUT of one chunk against a presigned URL.
type PartUploader struct {
	hclient *http.Client
}

// Upload sends data to the presigned putURL and returns the integrity tag
// the storage backend reports for it. onProgress, when non-nil, receives the
// running count of bytes handed to the transport.
func (u *PartUploader) Upload(ctx context.Context, putURL, contentType string, data []byte, onProgress func(sent int64)) (string, error) {
	body := &countingReader{r: bytes.NewReader(data), report: onProgress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, putURL, body)
	if err != nil {
		return "", &ValidationError{Msg: fmt.Sprintf("invalid upload URL: %v", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := u.hclient.Do(req)
	if err != nil {
		return "", &TransportError{StatusText: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", &TransportError{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode)}
	}

	etag := strings.Trim(resp.Header.Get("ETag"), `"`)
	if etag == "" {
		return "", &IntegrityError{Msg: "storage backend returned no etag for uploaded part"}
	}
	return etag, nil
}

type countingReader struct {
	r      *bytes.Reader
	sent   int64
	report func(int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 && c.report != nil {
		c.sent += int64(n)
		c.report(c.sent)
	}
	return n, err
}
