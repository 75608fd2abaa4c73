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

package apierror_test

import (
	"net/http"
	"testing"

	"github.com/blnkfinance/certify/internal/apierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewAPIError(t *testing.T) {
	details := "pq: relation does not exist"
	apiErr := apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve certification", details)

	assert.Equal(t, apierror.ErrInternalServer, apiErr.Code)
	assert.Equal(t, "Failed to retrieve certification", apiErr.Message)
	assert.Equal(t, details, apiErr.Details)
	assert.Equal(t, "INTERNAL_SERVER_ERROR: Failed to retrieve certification", apiErr.Error())
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", apierror.NewAPIError(apierror.ErrNotFound, "Certification not found", nil), http.StatusNotFound},
		{"conflict", apierror.NewAPIError(apierror.ErrConflict, "Certification already exists", nil), http.StatusConflict},
		{"invalid state", apierror.NewAPIError(apierror.ErrInvalidState, "Certification cannot be edited", nil), http.StatusConflict},
		{"bad request", apierror.NewAPIError(apierror.ErrBadRequest, "Invalid certification ID", nil), http.StatusBadRequest},
		{"invalid input", apierror.NewAPIError(apierror.ErrInvalidInput, "Missing fields", nil), http.StatusBadRequest},
		{"internal", apierror.NewAPIError(apierror.ErrInternalServer, "Database error", nil), http.StatusInternalServerError},
		{"wrapped", errors.Wrap(apierror.NewAPIError(apierror.ErrNotFound, "Certification not found", nil), "submit"), http.StatusNotFound},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, apierror.MapErrorToHTTPStatus(tt.err))
		})
	}
}

func TestResponse_HidesInternalDetails(t *testing.T) {
	resp := apierror.Response(errors.New("pq: password authentication failed"))
	assert.Equal(t, apierror.ErrInternalServer, resp.Code)
	assert.Nil(t, resp.Details)

	missing := []string{"email"}
	resp = apierror.Response(apierror.NewAPIError(apierror.ErrInvalidInput, "Missing required fields", missing))
	assert.Equal(t, apierror.ErrInvalidInput, resp.Code)
	assert.Equal(t, missing, resp.Details)
}
