package s3

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"SwiftBackuper/internal/blobstore"
)

const (
	MinPartSizeMB    = 5
	MinPartSizeBytes = MinPartSizeMB * 1024 * 1024
	listPageSize     = 1000
)

type Options struct {
	Endpoint           string
	Region             string
	AccessKey          string
	SecretKey          string
	PathStyle          bool
	PartSizeMB         int
	InsecureSkipVerify bool
}

type Client struct {
	client   *s3.Client
	partSize int64
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	endpoint, err := normalizeEndpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
	}
	// The SDK adds AWS_CA_BUNDLE roots through transport options, so a custom
	// client has to stay buildable.
	if opts.InsecureSkipVerify {
		httpClient := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
			if tr.TLSClientConfig == nil {
				tr.TLSClientConfig = &tls.Config{}
			}
			tr.TLSClientConfig.InsecureSkipVerify = true
		})
		loadOpts = append(loadOpts, awsconfig.WithHTTPClient(httpClient))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.PathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	partSize := int64(opts.PartSizeMB) * 1024 * 1024
	if partSize < MinPartSizeBytes {
		partSize = MinPartSizeBytes
	}
	return &Client{client: client, partSize: partSize}, nil
}

// NewFromClient wraps an already configured SDK client.
func NewFromClient(client *s3.Client, partSizeBytes int64) *Client {
	if partSizeBytes < MinPartSizeBytes {
		partSizeBytes = MinPartSizeBytes
	}
	return &Client{client: client, partSize: partSizeBytes}
}

func normalizeEndpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("s3 endpoint: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("s3 endpoint %q: missing host", raw)
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

func (c *Client) Upload(ctx context.Context, container, name string, body io.Reader, size int64, progress blobstore.ProgressFunc) (blobstore.Object, error) {
	if container == "" {
		return blobstore.Object{}, blobstore.ErrContainerRequired
	}
	body = blobstore.NewProgressReader(body, size, progress)
	var (
		etag string
		err  error
	)
	if size >= 0 && size < c.partSize {
		etag, err = c.PutSingle(ctx, container, name, body, size)
	} else {
		etag, err = c.UploadMultipart(ctx, container, name, body, c.partSize)
	}
	if err != nil {
		return blobstore.Object{}, err
	}
	return blobstore.Object{Name: name, Size: size, ETag: etag}, nil
}

func (c *Client) List(ctx context.Context, container string) ([]blobstore.Object, error) {
	if container == "" {
		return nil, blobstore.ErrContainerRequired
	}
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(container),
		MaxKeys: aws.Int32(listPageSize),
	}
	var objs []blobstore.Object
	paginator := s3.NewListObjectsV2Paginator(c.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", container, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			o := blobstore.Object{Name: *obj.Key}
			if obj.Size != nil {
				o.Size = *obj.Size
			}
			if obj.LastModified != nil {
				o.LastModified = obj.LastModified.UTC()
			}
			if obj.ETag != nil {
				o.ETag = strings.Trim(*obj.ETag, `"`)
			}
			objs = append(objs, o)
		}
	}
	return objs, nil
}

func (c *Client) Remove(ctx context.Context, container string, obj blobstore.Object) error {
	if container == "" {
		return blobstore.ErrContainerRequired
	}
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(obj.Name),
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", container, obj.Name, err)
	}
	return nil
}

// EnsureContainer creates the bucket unless it already exists.
func (c *Client) EnsureContainer(ctx context.Context, container string) error {
	_, err := c.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(container)})
	if err == nil {
		return nil
	}
	var owned *types.BucketAlreadyOwnedByYou
	var exists *types.BucketAlreadyExists
	if errors.As(err, &owned) || errors.As(err, &exists) {
		return nil
	}
	return fmt.Errorf("create bucket %s: %w", container, err)
}

var _ blobstore.Store = (*Client)(nil)
