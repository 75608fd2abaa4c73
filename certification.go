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

package certify

import (
	"context"
	"time"

	"github.com/blnkfinance/certify/firmasegura"
	"github.com/blnkfinance/certify/internal/apierror"
	"github.com/blnkfinance/certify/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// AgeAt returns the age in whole years of someone born on birth at the instant now.
func AgeAt(birth, now time.Time) int {
	if birth.IsZero() {
		return 0
	}
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

func (c *Certify) applyDefaults(cert *model.Certification) {
	if cert.CountryCode == "" {
		cert.CountryCode = c.config.CountryCode
	}
	if cert.DocumentType == "" {
		cert.DocumentType = c.config.DocumentType
	}
	if cert.ClientAge == 0 {
		cert.ClientAge = AgeAt(cert.BirthDate, c.now())
	}
}

func validateCertification(cert *model.Certification) error {
	if missing := firmasegura.MissingFields(cert); len(missing) > 0 {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "Missing required fields", missing)
	}
	return nil
}

// CreateCertification stores a new draft certification with its applicant data.
func (c *Certify) CreateCertification(ctx context.Context, cert model.Certification) (model.Certification, error) {
	ctx, span := tracer.Start(ctx, "CreateCertification")
	defer span.End()

	cert.CertificationID = model.GenerateUUIDWithSuffix("cert")
	if cert.ReferenceTransaction == "" {
		cert.ReferenceTransaction = model.GenerateUUIDWithSuffix("ref")
	}
	cert.Status = model.StatusDraft
	cert.ValidationStatus = ""
	cert.RejectionReason = ""
	cert.SubmittedAt = nil
	cert.ValidatedAt = nil
	cert.CreatedAt = c.now().UTC()
	c.applyDefaults(&cert)

	if err := validateCertification(&cert); err != nil {
		return model.Certification{}, recordError(span, err)
	}

	created, err := c.datasource.CreateCertification(ctx, cert)
	if err != nil {
		return model.Certification{}, recordError(span, err)
	}
	span.SetAttributes(attribute.String("certification.id", created.CertificationID))
	return created, nil
}

// GetCertification returns the certification together with its audit trail.
func (c *Certify) GetCertification(ctx context.Context, id string) (*model.Certification, error) {
	ctx, span := tracer.Start(ctx, "GetCertification")
	defer span.End()
	span.SetAttributes(attribute.String("certification.id", id))

	cert, err := c.datasource.GetCertificationByID(ctx, id)
	if err != nil {
		return nil, recordError(span, err)
	}
	events, err := c.datasource.GetCertificationEvents(ctx, id)
	if err != nil {
		return nil, recordError(span, err)
	}
	cert.Events = events
	return cert, nil
}

func (c *Certify) GetAllCertifications(ctx context.Context, limit, offset int) ([]model.Certification, error) {
	return c.datasource.GetAllCertifications(ctx, limit, offset)
}

// UpdateCertification replaces the applicant data of a draft or rejected certification.
// Workflow fields and the reference transaction are kept.
func (c *Certify) UpdateCertification(ctx context.Context, id string, changes model.Certification) (*model.Certification, error) {
	ctx, span := tracer.Start(ctx, "UpdateCertification")
	defer span.End()
	span.SetAttributes(attribute.String("certification.id", id))

	existing, err := c.datasource.GetCertificationByID(ctx, id)
	if err != nil {
		return nil, recordError(span, err)
	}
	if !existing.Status.IsEditable() {
		return nil, recordError(span, apierror.NewAPIError(apierror.ErrInvalidState,
			"Certification can only be edited while in draft or rejected", existing.Status))
	}

	changes.CertificationID = existing.CertificationID
	changes.ReferenceTransaction = existing.ReferenceTransaction
	changes.Status = existing.Status
	changes.ValidationStatus = existing.ValidationStatus
	changes.RejectionReason = existing.RejectionReason
	changes.SubmittedAt = existing.SubmittedAt
	changes.ValidatedAt = existing.ValidatedAt
	changes.CreatedAt = existing.CreatedAt
	c.applyDefaults(&changes)

	if err := validateCertification(&changes); err != nil {
		return nil, recordError(span, err)
	}
	if err := c.datasource.UpdateCertification(ctx, &changes); err != nil {
		return nil, recordError(span, err)
	}
	return &changes, nil
}

// SubmitCertification sends the certification to FirmaSegura and returns the recorded outcome.
// The error is only set when the certification cannot be loaded.
func (c *Certify) SubmitCertification(ctx context.Context, id string) (firmasegura.Outcome, error) {
	ctx, span := tracer.Start(ctx, "SubmitCertification")
	defer span.End()
	span.SetAttributes(attribute.String("certification.id", id))

	cert, err := c.datasource.GetCertificationByID(ctx, id)
	if err != nil {
		return firmasegura.Outcome{}, recordError(span, err)
	}

	outcome := c.engine.Submit(ctx, cert)
	span.SetAttributes(
		attribute.Bool("outcome.success", outcome.Success),
		attribute.String("certification.status", string(cert.Status)),
	)
	return outcome, nil
}

// QueueSubmission schedules the submission on the worker queue.
func (c *Certify) QueueSubmission(ctx context.Context, id string) error {
	cert, err := c.datasource.GetCertificationByID(ctx, id)
	if err != nil {
		return err
	}
	if !cert.Status.IsSubmittable() {
		return apierror.NewAPIError(apierror.ErrInvalidState, "Certification cannot be submitted in its current status", cert.Status)
	}
	_, err = c.queue.EnqueueSubmission(ctx, id)
	return err
}

// CheckCertificationStatus polls FirmaSegura once for the certification.
func (c *Certify) CheckCertificationStatus(ctx context.Context, id string) (firmasegura.Outcome, error) {
	ctx, span := tracer.Start(ctx, "CheckCertificationStatus")
	defer span.End()
	span.SetAttributes(attribute.String("certification.id", id))

	cert, err := c.datasource.GetCertificationByID(ctx, id)
	if err != nil {
		return firmasegura.Outcome{}, recordError(span, err)
	}

	outcome := c.engine.CheckStatus(ctx, cert)
	span.SetAttributes(attribute.Bool("outcome.success", outcome.Success))
	return outcome, nil
}

// SweepCertifications reconciles every pending or in-review certification.
func (c *Certify) SweepCertifications(ctx context.Context) (firmasegura.SweepSummary, error) {
	ctx, span := tracer.Start(ctx, "SweepCertifications")
	defer span.End()

	summary, err := c.engine.Sweep(ctx)
	if err != nil {
		return summary, recordError(span, err)
	}
	span.SetAttributes(
		attribute.Int("sweep.total", summary.Total),
		attribute.Int("sweep.failed", summary.Failed),
	)
	return summary, nil
}

func (c *Certify) GetCertificationEvents(ctx context.Context, id string) ([]model.CertificationEvent, error) {
	if _, err := c.datasource.GetCertificationByID(ctx, id); err != nil {
		return nil, err
	}
	return c.datasource.GetCertificationEvents(ctx, id)
}
