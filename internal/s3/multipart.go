package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// PutSingle uploads a body smaller than one part with a single PutObject.
func (c *Client) PutSingle(ctx context.Context, bucket, key string, body io.Reader, size int64) (string, error) {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if _, err := io.Copy(buf, body); err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	out, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return trimETag(out.ETag), nil
}

// UploadMultipart sends body in parts of partSizeBytes. Every part is buffered so the
// request body is seekable for signing. An unfinished upload is aborted.
func (c *Client) UploadMultipart(ctx context.Context, bucket, key string, body io.Reader, partSizeBytes int64) (string, error) {
	if partSizeBytes < MinPartSizeBytes {
		partSizeBytes = MinPartSizeBytes
	}

	createOut, err := c.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("create multipart upload: %w", err)
	}
	uploadID := createOut.UploadId
	defer func() {
		if uploadID != nil {
			_, _ = c.client.AbortMultipartUpload(context.WithoutCancel(ctx), &s3.AbortMultipartUploadInput{
				Bucket:   aws.String(bucket),
				Key:      aws.String(key),
				UploadId: uploadID,
			})
		}
	}()

	var completed []types.CompletedPart
	partNumber := int32(1)
	buf := make([]byte, partSizeBytes)

	for {
		n, readErr := io.ReadFull(body, buf)
		if readErr != nil && !errors.Is(readErr, io.EOF) && !errors.Is(readErr, io.ErrUnexpectedEOF) {
			return "", fmt.Errorf("read part %d: %w", partNumber, readErr)
		}
		// An empty body still needs one (empty) part to complete.
		if n == 0 && len(completed) > 0 {
			break
		}

		uploadOut, err := c.client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			UploadId:      uploadID,
			PartNumber:    aws.Int32(partNumber),
			Body:          bytes.NewReader(buf[:n]),
			ContentLength: aws.Int64(int64(n)),
		})
		if err != nil {
			return "", fmt.Errorf("upload part %d: %w", partNumber, err)
		}
		completed = append(completed, types.CompletedPart{
			ETag:       uploadOut.ETag,
			PartNumber: aws.Int32(partNumber),
		})
		partNumber++

		if readErr != nil {
			break
		}
	}

	out, err := c.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		return "", fmt.Errorf("complete multipart upload: %w", err)
	}
	uploadID = nil
	return trimETag(out.ETag), nil
}

func trimETag(etag *string) string {
	if etag == nil {
		return ""
	}
	return strings.Trim(*etag, `"`)
}
