// Package swift stores backups in an OpenStack Swift container through goose.
package swift

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/go-goose/goose/v5/client"
	gooseerrors "github.com/go-goose/goose/v5/errors"
	"github.com/go-goose/goose/v5/identity"
	"github.com/go-goose/goose/v5/swift"

	"SwiftBackuper/internal/blobstore"
)

const listPageSize = 1000

// Swift reports last_modified without a zone, always in UTC.
const lastModifiedLayout = "2006-01-02T15:04:05.999999"

type Options struct {
	AuthURL            string
	Username           string
	Password           string
	TenantName         string
	DomainName         string
	Region             string
	InsecureSkipVerify bool
}

// objectAPI is the part of *swift.Client the store uses.
type objectAPI interface {
	CreateContainer(containerName string, acl swift.ACL) error
	PutReader(containerName, objectName string, r io.Reader, length int64) error
	List(containerName, prefix, delim, marker string, limit int) ([]swift.ContainerContents, error)
	DeleteObject(containerName, objectName string) error
}

type Client struct {
	api objectAPI
}

func New(opts Options) (*Client, error) {
	if opts.AuthURL == "" {
		return nil, fmt.Errorf("swift: auth url is required")
	}
	cred, mode, err := credentials(opts)
	if err != nil {
		return nil, err
	}
	var c client.AuthenticatingClient
	if opts.InsecureSkipVerify {
		c = client.NewNonValidatingClient(cred, mode, nil)
	} else {
		c = client.NewClient(cred, mode, nil)
	}
	return &Client{api: swift.New(c)}, nil
}

func newWithAPI(api objectAPI) *Client {
	return &Client{api: api}
}

func credentials(opts Options) (*identity.Credentials, identity.AuthMode, error) {
	u, err := url.Parse(opts.AuthURL)
	if err != nil {
		return nil, 0, fmt.Errorf("swift: auth url: %w", err)
	}
	cred := &identity.Credentials{
		URL:        opts.AuthURL,
		User:       opts.Username,
		Secrets:    opts.Password,
		Region:     opts.Region,
		TenantName: opts.TenantName,
	}
	mode := identity.AuthUserPass
	if opts.DomainName != "" || strings.HasSuffix(strings.TrimSuffix(u.Path, "/"), "/v3") {
		mode = identity.AuthUserPassV3
		domain := opts.DomainName
		if domain == "" {
			domain = "Default"
		}
		cred.UserDomain = domain
		cred.ProjectDomain = domain
	}
	return cred, mode, nil
}

// Upload streams body into the container. goose calls are not cancellable, so ctx
// is only checked before the request starts.
func (c *Client) Upload(ctx context.Context, container, name string, body io.Reader, size int64, progress blobstore.ProgressFunc) (blobstore.Object, error) {
	if container == "" {
		return blobstore.Object{}, blobstore.ErrContainerRequired
	}
	if err := ctx.Err(); err != nil {
		return blobstore.Object{}, err
	}
	body = blobstore.NewProgressReader(body, size, progress)
	if err := c.api.PutReader(container, name, body, size); err != nil {
		return blobstore.Object{}, fmt.Errorf("put %s/%s: %w", container, name, err)
	}
	return blobstore.Object{Name: name, Size: size, LastModified: time.Now().UTC()}, nil
}

func (c *Client) List(ctx context.Context, container string) ([]blobstore.Object, error) {
	if container == "" {
		return nil, blobstore.ErrContainerRequired
	}
	var (
		objs   []blobstore.Object
		marker string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := c.api.List(container, "", "", marker, listPageSize)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", container, err)
		}
		for _, item := range page {
			objs = append(objs, toObject(item))
		}
		if len(page) < listPageSize {
			return objs, nil
		}
		marker = page[len(page)-1].Name
	}
}

func (c *Client) Remove(ctx context.Context, container string, obj blobstore.Object) error {
	if container == "" {
		return blobstore.ErrContainerRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.api.DeleteObject(container, obj.Name); err != nil {
		return fmt.Errorf("delete %s/%s: %w", container, obj.Name, err)
	}
	return nil
}

// EnsureContainer creates a private container. Swift treats an existing one as success.
func (c *Client) EnsureContainer(ctx context.Context, container string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.api.CreateContainer(container, swift.Private); err != nil {
		return fmt.Errorf("create container %s: %w", container, err)
	}
	return nil
}

func toObject(item swift.ContainerContents) blobstore.Object {
	o := blobstore.Object{
		Name: item.Name,
		Size: int64(item.LengthBytes),
		ETag: item.Hash,
	}
	if t, err := time.Parse(lastModifiedLayout, item.LastModified); err == nil {
		o.LastModified = t.UTC()
	}
	return o
}

// IsUnauthorised reports whether err, or any error it wraps, is goose's
// rejected-credentials error.
func IsUnauthorised(err error) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if gooseerrors.IsUnauthorised(err) {
			return true
		}
	}
	return false
}

var _ blobstore.Store = (*Client)(nil)
