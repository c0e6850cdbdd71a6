// Package provider builds the object store named by the storage config.
package provider

import (
	"context"
	"fmt"

	"SwiftBackuper/internal/blobstore"
	"SwiftBackuper/internal/config"
	"SwiftBackuper/internal/s3"
	"SwiftBackuper/internal/swift"
)

// ContainerStore is a Store that can also create its container.
type ContainerStore interface {
	blobstore.Store
	EnsureContainer(ctx context.Context, container string) error
}

func NewStore(ctx context.Context, sc config.StorageConfig) (ContainerStore, error) {
	switch sc.Provider {
	case config.ProviderOpenStack, "":
		return swift.New(swift.Options{
			AuthURL:            sc.AuthURL,
			Username:           sc.Username,
			Password:           sc.Password,
			TenantName:         sc.TenantName,
			DomainName:         sc.DomainName,
			Region:             sc.Region,
			InsecureSkipVerify: sc.InsecureSkipVerify,
		})
	case config.ProviderS3:
		return s3.New(ctx, s3.Options{
			Endpoint:           sc.AuthURL,
			Region:             sc.Region,
			AccessKey:          sc.Username,
			SecretKey:          sc.Password,
			PathStyle:          sc.PathStyle,
			PartSizeMB:         sc.PartSizeMB,
			InsecureSkipVerify: sc.InsecureSkipVerify,
		})
	default:
		return nil, fmt.Errorf("%w: got %q", config.ErrInvalidProvider, sc.Provider)
	}
}
