package storage

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/hszk-dev/mediafeed/internal/domain/repository"
)

// mockMinioClient implements minioClient interface for testing.
type mockMinioClient struct {
	bucketExistsFunc       func(ctx context.Context, bucketName string) (bool, error)
	presignedPutObjectFunc func(ctx context.Context, bucketName, objectName string, expiry time.Duration) (*url.URL, error)
	presignedGetObjectFunc func(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	statObjectFunc         func(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

func (m *mockMinioClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	if m.bucketExistsFunc != nil {
		return m.bucketExistsFunc(ctx, bucketName)
	}
	return true, nil
}

func (m *mockMinioClient) PresignedPutObject(ctx context.Context, bucketName, objectName string, expiry time.Duration) (*url.URL, error) {
	if m.presignedPutObjectFunc != nil {
		return m.presignedPutObjectFunc(ctx, bucketName, objectName, expiry)
	}
	return nil, errors.New("not implemented")
}

func (m *mockMinioClient) PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
	if m.presignedGetObjectFunc != nil {
		return m.presignedGetObjectFunc(ctx, bucketName, objectName, expiry, reqParams)
	}
	return nil, errors.New("not implemented")
}

func (m *mockMinioClient) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	if m.statObjectFunc != nil {
		return m.statObjectFunc(ctx, bucketName, objectName, opts)
	}
	return minio.ObjectInfo{}, nil
}

func TestNewClientWithMinioClient(t *testing.T) {
	tests := []struct {
		name       string
		bucket     string
		mockClient *mockMinioClient
		wantErr    error
	}{
		{
			name:   "successful initialization",
			bucket: "media",
			mockClient: &mockMinioClient{
				bucketExistsFunc: func(ctx context.Context, bucketName string) (bool, error) {
					return true, nil
				},
			},
		},
		{
			name:   "bucket does not exist",
			bucket: "missing",
			mockClient: &mockMinioClient{
				bucketExistsFunc: func(ctx context.Context, bucketName string) (bool, error) {
					return false, nil
				},
			},
			wantErr: repository.ErrBucketNotFound,
		},
		{
			name:   "bucket check error",
			bucket: "media",
			mockClient: &mockMinioClient{
				bucketExistsFunc: func(ctx context.Context, bucketName string) (bool, error) {
					return false, errors.New("connection refused")
				},
			},
			wantErr: errors.New("failed to check bucket existence"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newClientWithMinioClient(context.Background(), tt.mockClient, tt.mockClient, tt.bucket)

			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("newClientWithMinioClient() expected error, got nil")
				}
				if !errors.Is(err, tt.wantErr) && !strings.Contains(err.Error(), tt.wantErr.Error()) {
					t.Errorf("newClientWithMinioClient() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("newClientWithMinioClient() unexpected error = %v", err)
			}
			if client.Bucket() != tt.bucket {
				t.Errorf("Bucket() = %v, want %v", client.Bucket(), tt.bucket)
			}
		})
	}
}

func TestClient_GeneratePresignedUploadURL(t *testing.T) {
	internal := &mockMinioClient{}
	public := &mockMinioClient{
		presignedPutObjectFunc: func(ctx context.Context, bucketName, objectName string, expiry time.Duration) (*url.URL, error) {
			if bucketName != "media" || objectName != "uploads/abc_clip.mp4" || expiry != 10*time.Minute {
				t.Errorf("unexpected args: %s %s %v", bucketName, objectName, expiry)
			}
			return url.Parse("https://media.example.com/media/uploads/abc_clip.mp4?X-Amz-Signature=sig")
		},
	}
	client := &Client{client: internal, presignedClient: public, bucket: "media"}

	got, err := client.GeneratePresignedUploadURL(context.Background(), "uploads/abc_clip.mp4", 10*time.Minute)
	if err != nil {
		t.Fatalf("GeneratePresignedUploadURL() unexpected error = %v", err)
	}
	if !strings.HasPrefix(got, "https://media.example.com/") {
		t.Errorf("expected URL signed against public endpoint, got %s", got)
	}
}

func TestClient_GeneratePresignedUploadURL_Error(t *testing.T) {
	mock := &mockMinioClient{
		presignedPutObjectFunc: func(ctx context.Context, bucketName, objectName string, expiry time.Duration) (*url.URL, error) {
			return nil, errors.New("signing error")
		},
	}
	client := &Client{client: mock, presignedClient: mock, bucket: "media"}

	if _, err := client.GeneratePresignedUploadURL(context.Background(), "uploads/x", time.Minute); err == nil {
		t.Error("expected error")
	}
}

func TestClient_GeneratePresignedDownloadURL(t *testing.T) {
	tests := []struct {
		name    string
		getFunc func(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
		wantURL string
		wantErr bool
	}{
		{
			name: "success",
			getFunc: func(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
				return url.Parse("http://localhost:9000/media/" + objectName + "?X-Amz-Signature=abc")
			},
			wantURL: "http://localhost:9000/media/uploads/clip.mp4?X-Amz-Signature=abc",
		},
		{
			name: "signing error",
			getFunc: func(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
				return nil, errors.New("signing error")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockMinioClient{presignedGetObjectFunc: tt.getFunc}
			client := &Client{client: mock, presignedClient: mock, bucket: "media"}

			got, err := client.GeneratePresignedDownloadURL(context.Background(), "uploads/clip.mp4", time.Hour)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GeneratePresignedDownloadURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.wantURL {
				t.Errorf("GeneratePresignedDownloadURL() = %v, want %v", got, tt.wantURL)
			}
		})
	}
}

func TestClient_Exists(t *testing.T) {
	tests := []struct {
		name     string
		statFunc func(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
		want     bool
		wantErr  bool
	}{
		{
			name: "object exists",
			statFunc: func(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
				return minio.ObjectInfo{Key: objectName, Size: 1024}, nil
			},
			want: true,
		},
		{
			name: "object does not exist",
			statFunc: func(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
				return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
			},
			want: false,
		},
		{
			name: "storage error",
			statFunc: func(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
				return minio.ObjectInfo{}, errors.New("connection reset")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockMinioClient{statObjectFunc: tt.statFunc}
			client := &Client{client: mock, presignedClient: mock, bucket: "media"}

			got, err := client.Exists(context.Background(), "uploads/clip.mp4")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Exists() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Exists() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_Ping(t *testing.T) {
	mock := &mockMinioClient{
		bucketExistsFunc: func(ctx context.Context, bucketName string) (bool, error) {
			return false, errors.New("connection refused")
		},
	}
	client := &Client{client: mock, presignedClient: mock, bucket: "media"}

	if err := client.Ping(context.Background()); err == nil {
		t.Error("expected ping error")
	}
}
