package firmasegura

import (
	"context"
	"net/http"
	"time"

	"github.com/blnkfinance/certify/model"
)

// Doer sends outbound HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BlobReader reads stored document files by path.
type BlobReader interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// Store is the persistence the engine needs.
type Store interface {
	GetCertificationByID(ctx context.Context, certificationID string) (*model.Certification, error)
	GetCertificationsByStatus(ctx context.Context, statuses []model.CertificationStatus) ([]model.Certification, error)
	ApplyCertificationUpdate(ctx context.Context, certificationID string, update model.CertificationUpdate) error
}

// Locker is an exclusive lock on a single key.
type Locker interface {
	WaitLock(ctx context.Context, lockTimeout, waitTimeout time.Duration) error
	Unlock(ctx context.Context) error
}

// LockProvider returns a locker for the given key.
type LockProvider func(key string) Locker

// Outcome is what Submit and CheckStatus report back to their caller.
type Outcome struct {
	Success      bool                   `json:"success"`
	Message      string                 `json:"message"`
	Data         map[string]interface{} `json:"data,omitempty"`
	ErrorDetails map[string]interface{} `json:"error_details,omitempty"`
}

func failure(message string, details map[string]interface{}) Outcome {
	return Outcome{Success: false, Message: message, ErrorDetails: details}
}
