package snapshot

import (
	"context"
	"fmt"
	"sync"

	"github.com/orgtools/orgdelta/pkg/s3client"
)

// mockS3Client is a mock implementation of s3client.Client for testing
type mockS3Client struct {
	mu sync.Mutex

	listObjectsFunc func(ctx context.Context, req *s3client.ListObjectsRequest) ([]s3client.ItemMetadata, error)
	headObjectFunc  func(ctx context.Context, req *s3client.HeadObjectRequest) (*s3client.ObjectInfo, error)

	putKeys    []string
	uploadKeys []string
	putErr     error
}

func (m *mockS3Client) ListObjects(ctx context.Context, req *s3client.ListObjectsRequest) ([]s3client.ItemMetadata, error) {
	if m.listObjectsFunc != nil {
		return m.listObjectsFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockS3Client) HeadObject(ctx context.Context, req *s3client.HeadObjectRequest) (*s3client.ObjectInfo, error) {
	if m.headObjectFunc != nil {
		return m.headObjectFunc(ctx, req)
	}
	return nil, fmt.Errorf("HeadObject not implemented")
}

func (m *mockS3Client) PutObject(ctx context.Context, req *s3client.PutObjectRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putKeys = append(m.putKeys, req.Key)
	return m.putErr
}

func (m *mockS3Client) UploadFile(ctx context.Context, req *s3client.UploadFileRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadKeys = append(m.uploadKeys, req.Key)
	return nil
}

func (m *mockS3Client) DeleteObject(ctx context.Context, req *s3client.DeleteObjectRequest) error {
	return nil
}
