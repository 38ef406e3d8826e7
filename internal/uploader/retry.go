package uploader

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy re-runs a part upload after transport failures. Other error
// kinds pass through untouched: a missing etag or a rejected request will
// not heal on retry. The zero value performs a single attempt.
type RetryPolicy struct {
	MaxAttempts int
	Wait        time.Duration
}

// Upload runs u.Upload under the policy.
func (p RetryPolicy) Upload(ctx context.Context, u *PartUploader, putURL, contentType string, data []byte, onProgress func(sent int64)) (string, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 && p.Wait > 0 {
			select {
			case <-time.After(p.Wait):
			case <-ctx.Done():
				return "", &TransportError{StatusText: ctx.Err().Error()}
			}
		}
		var etag string
		etag, err = u.Upload(ctx, putURL, contentType, data, onProgress)
		if err == nil {
			return etag, nil
		}
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			return "", err
		}
	}
	return "", err
}
