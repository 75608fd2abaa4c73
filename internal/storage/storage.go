/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blnkfinance/certify/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Reader reads certification documents by their stored path.
type Reader interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// New returns the reader selected by the storage driver.
func New(cfg config.StorageConfig) (Reader, error) {
	switch cfg.Driver {
	case "", "disk":
		return NewDisk(cfg.RootDir), nil
	case "minio":
		return NewMinio(cfg.Minio)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// Disk reads documents below a root directory.
type Disk struct {
	root string
}

func NewDisk(root string) *Disk {
	return &Disk{root: root}
}

func (d *Disk) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := d.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

func (d *Disk) resolve(path string) (string, error) {
	cleaned := filepath.Clean("/" + filepath.FromSlash(path))
	if cleaned == string(filepath.Separator) {
		return "", fmt.Errorf("invalid document path %q", path)
	}
	return filepath.Join(d.root, strings.TrimPrefix(cleaned, string(filepath.Separator))), nil
}

// Minio reads documents from an S3 compatible bucket.
type Minio struct {
	client *minio.Client
	bucket string
}

func NewMinio(cfg config.MinioConfig) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Minio{client: client, bucket: cfg.Bucket}, nil
}

func (m *Minio) Read(ctx context.Context, path string) ([]byte, error) {
	object, err := m.client.GetObject(ctx, m.bucket, strings.TrimPrefix(path, "/"), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", path, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", path, err)
	}
	return data, nil
}
