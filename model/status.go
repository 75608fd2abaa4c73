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

package model

// CertificationStatus is the internal workflow status of a certification.
type CertificationStatus string

const (
	StatusDraft     CertificationStatus = "draft"
	StatusPending   CertificationStatus = "pending"
	StatusInReview  CertificationStatus = "in_review"
	StatusApproved  CertificationStatus = "approved"
	StatusRejected  CertificationStatus = "rejected"
	StatusCompleted CertificationStatus = "completed"
)

// ValidationStatus mirrors the certification authority's issuance vocabulary.
type ValidationStatus string

const (
	ValidationRegistered ValidationStatus = "REGISTERED"
	ValidationValidating ValidationStatus = "VALIDATING"
	ValidationRefused    ValidationStatus = "REFUSED"
	ValidationError      ValidationStatus = "ERROR"
	ValidationApproved   ValidationStatus = "APPROVED"
	ValidationGenerated  ValidationStatus = "GENERATED"
	ValidationExpired    ValidationStatus = "EXPIRED"
)

// PollableStatuses are the workflow statuses the status sweep reconciles.
var PollableStatuses = []CertificationStatus{StatusPending, StatusInReview}

var validationRank = map[ValidationStatus]int{
	ValidationRegistered: 1,
	ValidationValidating: 2,
	ValidationApproved:   3,
	ValidationGenerated:  4,
}

// IsKnownValidationStatus reports whether s belongs to the internal validation vocabulary.
func IsKnownValidationStatus(s string) bool {
	switch ValidationStatus(s) {
	case ValidationRegistered, ValidationValidating, ValidationRefused, ValidationError,
		ValidationApproved, ValidationGenerated, ValidationExpired:
		return true
	}
	return false
}

// IsRejection reports whether the validation status is an explicit rejection signal.
func (v ValidationStatus) IsRejection() bool {
	return v == ValidationRefused || v == ValidationError || v == ValidationExpired
}

// CanAdvanceTo reports whether moving from v to next keeps the lifecycle monotonic.
// Rejection signals always apply; a current rejection or unknown status never blocks.
func (v ValidationStatus) CanAdvanceTo(next ValidationStatus) bool {
	if next == v {
		return false
	}
	if next.IsRejection() {
		return true
	}
	from, ok := validationRank[v]
	if !ok {
		return true
	}
	return validationRank[next] > from
}

// WorkflowStatusFor maps a validation status onto the workflow status, never moving
// a pending or in_review certification below its current position.
func WorkflowStatusFor(current CertificationStatus, v ValidationStatus) CertificationStatus {
	switch v {
	case ValidationRegistered, ValidationValidating:
		if current == StatusInReview {
			return StatusInReview
		}
		return StatusPending
	case ValidationApproved:
		return StatusInReview
	case ValidationGenerated:
		return StatusCompleted
	case ValidationRefused, ValidationError, ValidationExpired:
		return StatusRejected
	}
	return current
}

// IsSubmittable reports whether a certification in status s may be (re)sent to the authority.
func (s CertificationStatus) IsSubmittable() bool {
	return s == StatusDraft || s == StatusPending || s == StatusRejected
}

// IsEditable reports whether applicant data may still change.
func (s CertificationStatus) IsEditable() bool {
	return s == StatusDraft || s == StatusRejected
}
