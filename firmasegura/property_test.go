package firmasegura

import (
	"context"
	"net/http"
	"testing"

	"github.com/blnkfinance/certify/model"
	"github.com/jarcoal/httpmock"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: a natural person without RUC never carries company fields.
func TestBuilderExcludesCompanyFieldsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	builder := NewBuilder(fullBlobs(), nil)

	properties.Property("no company fields without RUC", prop.ForAll(
		func(position, social string, blankRuc string, age int) bool {
			cert := naturalPerson()
			cert.CompanyRuc = blankRuc
			cert.PositionCompany = position
			cert.CompanySocialReason = social
			cert.ClientAge = age
			cert.Documents.CompanyRuc = "docs/ruc.pdf"

			payload, err := builder.Build(context.Background(), cert)
			if err != nil {
				return false
			}
			for _, key := range append(companyKeys, "pdfCompanyRuc") {
				if _, ok := payload[key]; ok {
					return false
				}
			}
			return true
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.OneConstOf("", " ", "\t", "   "),
		gen.IntRange(18, 99),
	))

	properties.TestingRun(t)
}

// Property: the authorization video is present iff age > 65 and a video path is set.
func TestBuilderAuthorizationVideoProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	builder := NewBuilder(fullBlobs(), nil)

	properties.Property("video iff age above 65 with a reference", prop.ForAll(
		func(age int, hasVideo bool, legal bool) bool {
			cert := naturalPerson()
			if legal {
				cert = legalRepresentative()
			}
			cert.ClientAge = age
			if hasVideo {
				cert.Documents.AuthorizationVideo = "docs/video.mp4"
			}

			payload, err := builder.Build(context.Background(), cert)
			if err != nil {
				return false
			}
			_, included := payload["authorizationVideo"]
			return included == (age > 65 && hasVideo)
		},
		gen.IntRange(18, 100),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

var progressStatuses = []interface{}{
	model.ValidationRegistered,
	model.ValidationValidating,
	model.ValidationApproved,
	model.ValidationGenerated,
}

func statusBodyFor(v model.ValidationStatus) string {
	switch v {
	case model.ValidationGenerated:
		return `{"status":"APPROVED","validationStatus":"COMPLETED"}`
	case model.ValidationApproved:
		return `{"status":"APPROVED"}`
	}
	return `{"status":"IN_PROCESS","validationStatus":"` + string(v) + `"}`
}

// Property: two successive polls leave the certification at the furthest status seen,
// even when the second one starts from an outdated copy.
func TestCheckStatusNeverRegressesProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("polls never move validation status backwards", prop.ForAll(
		func(first, second model.ValidationStatus) bool {
			cert := naturalPerson()
			cert.Status = model.StatusInReview
			cert.ValidationStatus = model.ValidationRegistered
			store := newMemStore(cert)
			engine, mt, _ := newTestEngine(t, store, fullBlobs())
			stale := *cert

			body := statusBodyFor(first)
			mt.RegisterResponder(http.MethodGet, statusURL(), func(req *http.Request) (*http.Response, error) {
				return httpmock.NewStringResponse(200, body), nil
			})

			if !engine.CheckStatus(context.Background(), cert).Success {
				return false
			}
			// the second poll starts from the copy loaded before the first one
			completed := store.get(cert.CertificationID).Status == model.StatusCompleted
			body = statusBodyFor(second)
			if engine.CheckStatus(context.Background(), &stale).Success == completed {
				return false
			}

			want := first
			if validationRank[second] > validationRank[want] {
				want = second
			}
			return store.get(cert.CertificationID).ValidationStatus == want
		},
		gen.OneConstOf(progressStatuses...),
		gen.OneConstOf(progressStatuses...),
	))

	properties.TestingRun(t)
}

var validationRank = map[model.ValidationStatus]int{
	model.ValidationRegistered: 1,
	model.ValidationValidating: 2,
	model.ValidationApproved:   3,
	model.ValidationGenerated:  4,
}

// Property: once a submission starts, the certification ends in_review, rejected or
// draft, and only a rejected one carries a reason the authority gave.
func TestSubmitOutcomeShapeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("submit always lands on a retryable or settled status", prop.ForAll(
		func(code int, body string) bool {
			cert := naturalPerson()
			store := newMemStore(cert)
			engine, mt, _ := newTestEngine(t, store, fullBlobs())
			mt.RegisterResponder(http.MethodPost, collectorURL(), httpmock.NewStringResponder(code, body))

			engine.Submit(context.Background(), cert)
			stored := store.get(cert.CertificationID)

			switch stored.Status {
			case model.StatusInReview:
				return stored.RejectionReason == "" && stored.ValidationStatus != model.ValidationError
			case model.StatusRejected:
				return stored.RejectionReason != "" && stored.ValidationStatus == model.ValidationError
			case model.StatusDraft:
				return stored.ValidationStatus == model.ValidationError
			}
			return false
		},
		gen.OneConstOf(200, 201, 204, 301, 400, 401, 404, 409, 422, 500, 502, 503),
		gen.OneConstOf(
			`{"validationStatus":"REGISTERED"}`,
			`{"messages":["RUC inválido"]}`,
			`{"error":"Token inválido"}`,
			`{}`,
			`null`,
			``,
			`<html>error</html>`,
			`[1,2,3]`,
		),
	))

	properties.TestingRun(t)
}
