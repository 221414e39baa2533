package sink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/sitescreen/internal/common"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", publicBaseURL(common.S3Config{PublicBaseURL: "https://cdn.example.com/", Bucket: "b"}))
	assert.Equal(t, "http://minio:9000/shots", publicBaseURL(common.S3Config{Endpoint: "http://minio:9000/", Bucket: "shots"}))
	assert.Equal(t, "https://shots.s3.ap-northeast-1.amazonaws.com", publicBaseURL(common.S3Config{Bucket: "shots", Region: "ap-northeast-1"}))
}

func TestNewS3BlobStoreValidation(t *testing.T) {
	_, err := NewS3BlobStore(context.Background(), common.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
	_, err = NewS3BlobStore(context.Background(), common.S3Config{Bucket: "b"})
	assert.Error(t, err)
}

func TestS3BlobStoreUpload(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store, err := NewS3BlobStore(context.Background(), common.S3Config{
		Endpoint:        server.URL,
		Region:          "us-east-1",
		Bucket:          "shots",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
		Prefix:          "/screenshots/",
	})
	require.NoError(t, err)

	path := writeTempFile(t, "screenshot_1_x.png", []byte("png-bytes"))
	link, err := store.Upload(context.Background(), path, "screenshot_1_x.png")
	require.NoError(t, err)

	key := store.objectKey("screenshot_1_x.png", time.Now())
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/shots/"+key, gotPath)
	assert.Equal(t, server.URL+"/shots/"+key, link)
}

func TestObjectKey(t *testing.T) {
	store := &S3BlobStore{prefix: "screenshots"}
	assert.Equal(t, "screenshots/2025/03/a.png", store.objectKey("a.png", time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)))

	store.prefix = ""
	assert.Equal(t, "2025/03/a.png", store.objectKey("a.png", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
}
