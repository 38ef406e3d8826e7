package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

const defaultMaxAgeHours = 24

// Get the maximum age before an unfinished multipart upload is reaped.
func maxAge() time.Duration {
	if v := os.Getenv("VITRINE_UPLOAD_MAX_AGE_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			return time.Duration(h) * time.Hour
		}
		log.Printf("invalid VITRINE_UPLOAD_MAX_AGE_HOURS %q, using default", v)
	}
	return defaultMaxAgeHours * time.Hour
}

// Invoke the AWS Lambda function on a schedule to abort multipart uploads
// that were initiated but never completed, so orphaned parts do not keep
// accruing storage charges.
func handler(ctx context.Context, event events.CloudWatchEvent) error {
	bucket := os.Getenv("VITRINE_STORAGE_BUCKET")
	cutoff := time.Now().Add(-maxAge())
	svc := s3.New(session.Must(session.NewSession(&aws.Config{
		Endpoint: aws.String(os.Getenv("VITRINE_STORAGE_ENDPOINT")),
	})))

	input := &s3.ListMultipartUploadsInput{Bucket: aws.String(bucket)}
	for {
		out, err := svc.ListMultipartUploadsWithContext(ctx, input)
		if err != nil {
			log.Printf("failed to list multipart uploads: %v", err)
			return err
		}
		for _, u := range out.Uploads {
			if u.Initiated == nil || u.Initiated.After(cutoff) {
				continue
			}
			_, err := svc.AbortMultipartUploadWithContext(ctx, &s3.AbortMultipartUploadInput{
				Bucket:   aws.String(bucket),
				Key:      u.Key,
				UploadId: u.UploadId,
			})
			if err != nil {
				log.Printf("failed to abort multipart upload %s for %s: %v", aws.StringValue(u.UploadId), aws.StringValue(u.Key), err)
				continue
			}
			log.Printf("aborted stale multipart upload %s for %s, initiated %s", aws.StringValue(u.UploadId), aws.StringValue(u.Key), u.Initiated)
		}
		if !aws.BoolValue(out.IsTruncated) {
			break
		}
		input.KeyMarker = out.NextKeyMarker
		input.UploadIdMarker = out.NextUploadIdMarker
	}
	return nil
}

func main() {
	lambda.Start(handler)
}
