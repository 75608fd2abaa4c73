package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blnkfinance/certify/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisk_Read(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cert_1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cert_1", "front.jpg"), []byte("front"), 0o600))

	disk := NewDisk(root)

	data, err := disk.Read(context.Background(), "cert_1/front.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("front"), data)

	data, err = disk.Read(context.Background(), "/cert_1/front.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("front"), data)

	_, err = disk.Read(context.Background(), "cert_1/missing.jpg")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDisk_ReadStaysInsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "documents")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("secret"), 0o600))

	_, err := NewDisk(root).Read(context.Background(), "../secret.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewDisk(root).Read(context.Background(), "/")
	assert.Error(t, err)
}

func TestDisk_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDisk(t.TempDir()).Read(ctx, "any.jpg")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	reader, err := New(config.StorageConfig{Driver: "disk", RootDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Disk{}, reader)

	reader, err = New(config.StorageConfig{Driver: "minio", Minio: config.MinioConfig{Endpoint: "localhost:9000", Bucket: "docs"}})
	require.NoError(t, err)
	assert.IsType(t, &Minio{}, reader)

	_, err = New(config.StorageConfig{Driver: "ftp"})
	assert.EqualError(t, err, `unknown storage driver "ftp"`)
}

func TestMinio_Read(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/certify-docs/cert_1/selfie.jpg" {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", "6")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC).Format(http.TimeFormat))
		_, _ = w.Write([]byte("selfie"))
	}))
	defer server.Close()

	m, err := NewMinio(config.MinioConfig{
		Endpoint:  strings.TrimPrefix(server.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "certify-docs",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	data, err := m.Read(context.Background(), "cert_1/selfie.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("selfie"), data)

	_, err = m.Read(context.Background(), "cert_1/missing.jpg")
	assert.Error(t, err)
}
