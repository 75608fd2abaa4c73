package firmasegura

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/blnkfinance/certify/model"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/jarcoal/httpmock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://firmasegura.test"

var fixedNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

type memStore struct {
	mu       sync.Mutex
	certs    map[string]*model.Certification
	updates  []model.CertificationUpdate
	applyErr error
	loadErr  error
	getErr   error
}

func newMemStore(certs ...*model.Certification) *memStore {
	s := &memStore{certs: make(map[string]*model.Certification)}
	for _, c := range certs {
		cp := *c
		s.certs[c.CertificationID] = &cp
	}
	return s
}

func (s *memStore) GetCertificationsByStatus(_ context.Context, statuses []model.CertificationStatus) ([]model.Certification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	var out []model.Certification
	for _, c := range s.certs {
		for _, st := range statuses {
			if c.Status == st {
				out = append(out, *c)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CertificationID < out[j].CertificationID })
	return out, nil
}

func (s *memStore) GetCertificationByID(_ context.Context, id string) (*model.Certification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	c, ok := s.certs[id]
	if !ok {
		return nil, errors.New("certification not found")
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) ApplyCertificationUpdate(_ context.Context, id string, update model.CertificationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	c, ok := s.certs[id]
	if !ok {
		return errors.New("certification not found")
	}
	update.Apply(c)
	s.updates = append(s.updates, update)
	return nil
}

func (s *memStore) get(id string) model.Certification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.certs[id]
}

type memBlobs map[string][]byte

func (m memBlobs) Read(_ context.Context, path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, errors.New("file not found: " + path)
	}
	return data, nil
}

func fullBlobs() memBlobs {
	return memBlobs{
		"docs/front.jpg":        []byte("front"),
		"docs/back.jpg":         []byte("back"),
		"docs/selfie.jpg":       []byte("selfie"),
		"docs/ruc.pdf":          []byte("ruc"),
		"docs/appointment.pdf":  []byte("appointment"),
		"docs/acceptance.pdf":   []byte("acceptance"),
		"docs/constitution.pdf": []byte("constitution"),
		"docs/video.mp4":        []byte("video"),
	}
}

func naturalPerson() *model.Certification {
	return &model.Certification{
		CertificationID:      "cert_" + gofakeit.UUID(),
		ReferenceTransaction: "ref_" + gofakeit.UUID(),
		IdentificationNumber: "1712345678",
		Name:                 gofakeit.FirstName(),
		LastName:             gofakeit.LastName(),
		FingerCode:           "V3333V3333",
		BirthDate:            time.Date(1985, 6, 1, 0, 0, 0, 0, time.UTC),
		ClientAge:            39,
		Email:                gofakeit.Email(),
		Phone:                "0991234567",
		Address:              gofakeit.Street(),
		CountryCode:          "ECU",
		City:                 "Quito",
		Province:             "Pichincha",
		DocumentType:         "CEDULA",
		ApplicationType:      model.ApplicationNaturalPerson,
		Period:               "ONE_YEAR",
		Documents: model.Documents{
			IdentificationFront:  "docs/front.jpg",
			IdentificationBack:   "docs/back.jpg",
			IdentificationSelfie: "docs/selfie.jpg",
		},
		Status: model.StatusDraft,
	}
}

func legalRepresentative() *model.Certification {
	c := naturalPerson()
	expires := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)
	c.ApplicationType = model.ApplicationLegalRepresentative
	c.CompanyRuc = "1790012345001"
	c.PositionCompany = "Gerente General"
	c.CompanySocialReason = "Comercial Andina S.A."
	c.AppointmentExpirationDate = &expires
	c.Documents.CompanyRuc = "docs/ruc.pdf"
	c.Documents.RepresentativeAppointment = "docs/appointment.pdf"
	c.Documents.AppointmentAcceptance = "docs/acceptance.pdf"
	c.Documents.CompanyConstitution = "docs/constitution.pdf"
	return c
}

func testConfig(t *testing.T) ProviderConfig {
	cfg := ProviderConfig{BaseURL: testBaseURL, Token: "test-token"}
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestEngine(t *testing.T, store Store, blobs BlobReader, opts ...Option) (*Engine, *httpmock.MockTransport, *test.Hook) {
	mt := httpmock.NewMockTransport()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	base := []Option{
		WithDoer(&http.Client{Transport: mt}),
		WithLogger(logger),
		WithClock(func() time.Time { return fixedNow }),
	}
	return NewEngine(testConfig(t), store, blobs, append(base, opts...)...), mt, hook
}

func statusURL() string {
	return testBaseURL + defaultStatusPath
}

func collectorURL() string {
	return testBaseURL + defaultCollectorPath
}
