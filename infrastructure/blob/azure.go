package blob

import (
	"context"
	"fmt"
	"io"

	"edusync/domain/shared"
	"edusync/pkg/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

// AzureStore Azure Blob Storage container
type AzureStore struct {
	client    *azblob.Client
	container string
}

func NewAzureStore(connectionString, container string) (*AzureStore, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("blob connection string is required")
	}
	if container == "" {
		return nil, fmt.Errorf("blob container is required")
	}
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}
	return &AzureStore{client: client, container: container}, nil
}

// EnsureContainer creates the container if it does not exist yet.
func (s *AzureStore) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container %s: %w", s.container, err)
	}
	return nil
}

// Upload streams r into the container, overwriting an existing blob, and
// returns the blob URL.
func (s *AzureStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	opts := &azblob.UploadStreamOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)}
	}
	if _, err := s.client.UploadStream(ctx, s.container, name, r, opts); err != nil {
		return "", fmt.Errorf("upload blob %s: %w", name, err)
	}

	url := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(name).URL()
	logger.FromContext(ctx).Debug("Blob uploaded",
		zap.String("container", s.container),
		zap.String("blob", name),
		zap.String("url", url))
	return url, nil
}

// Delete removes the blob; a missing blob is not an error.
func (s *AzureStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	_, err := s.client.DeleteBlob(ctx, s.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil
		}
		return fmt.Errorf("delete blob %s: %w", name, err)
	}
	return nil
}

var _ shared.BlobStore = (*AzureStore)(nil)
