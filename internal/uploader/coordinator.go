package uploader

import (
	"context"
	"log"
	"time"
)

const abortTimeout = 30 * time.Second

// presignAPI is the control-plane surface the pipeline depends on.
// *Client is the production implementation.
type presignAPI interface {
	Initiate(ctx context.Context, key, contentType string) (string, error)
	PresignPart(ctx context.Context, key, uploadId string, partNumber int64) (string, error)
	Complete(ctx context.Context, key, uploadId, contentType string, size int64, parts []Part) (string, error)
	Abort(ctx context.Context, key, uploadId string) error
	PresignDirect(ctx context.Context, key, contentType string, size int64) (string, string, error)
}

// coordinator drives one multipart session: initiate, upload all parts in
// bounded batches, then complete. Once a session exists it is finalized
// exactly once: completed on success, aborted on any failure.
type coordinator struct {
	api            presignAPI
	parts          *PartUploader
	retry          RetryPolicy
	maxConcurrency int
}

func (co *coordinator) upload(ctx context.Context, key, contentType string, data []byte, plan Plan, agg *aggregator) (string, error) {
	uploadId, err := co.api.Initiate(ctx, key, contentType)
	if err != nil {
		// No session exists yet, so there is nothing to abort.
		return "", err
	}

	records := make([]Part, len(plan.Ranges))
	err = runBatches(ctx, len(plan.Ranges), co.maxConcurrency, func(ctx context.Context, i int) error {
		r := plan.Ranges[i]
		putURL, err := co.api.PresignPart(ctx, key, uploadId, r.Number)
		if err != nil {
			return err
		}
		chunk := data[r.Start : r.Start+r.Length]
		etag, err := co.retry.Upload(ctx, co.parts, putURL, contentType, chunk, func(sent int64) {
			agg.update(r.Number, sent)
		})
		if err != nil {
			return err
		}
		records[i] = Part{ETag: etag, PartNumber: r.Number}
		return nil
	})
	if err != nil {
		co.abort(key, uploadId)
		return "", err
	}

	publicURL, err := co.api.Complete(ctx, key, uploadId, contentType, plan.Size, records)
	if err != nil {
		co.abort(key, uploadId)
		return "", err
	}
	return publicURL, nil
}

// abort is best-effort cleanup. Its own failure is logged and discarded so
// it can never mask the error that triggered it, and it runs on a fresh
// context so caller cancellation cannot suppress it.
func (co *coordinator) abort(key, uploadId string) {
	ctx, cancel := context.WithTimeout(context.Background(), abortTimeout)
	defer cancel()
	if err := co.api.Abort(ctx, key, uploadId); err != nil {
		log.Printf("failed to abort multipart upload %s: %v", uploadId, err)
	}
}
