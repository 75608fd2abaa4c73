package firmasegura

import (
	"context"
	"fmt"
	"time"

	"github.com/blnkfinance/certify/model"
	"github.com/sirupsen/logrus"
	"github.com/wacul/ptr"
)

const (
	defaultLockTTL  = 120 * time.Second
	defaultLockWait = 5 * time.Second

	connectionErrorPrefix = "Error de conexión con FirmaSegura: "
)

// LockKey is the lock key guarding a certification's status fields.
func LockKey(certificationID string) string {
	return "certification:" + certificationID
}

// Engine submits certifications to the authority and reconciles their status.
type Engine struct {
	client   *Client
	builder  *Builder
	store    Store
	locks    LockProvider
	lockTTL  time.Duration
	lockWait time.Duration
	logger   logrus.FieldLogger
	now      func() time.Time
}

type Option func(*Engine)

// WithDoer replaces the HTTP transport.
func WithDoer(doer Doer) Option {
	return func(e *Engine) {
		e.client.doer = doer
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.builder.logger = logger
	}
}

// WithLocks serializes work on a certification through the given lock provider.
func WithLocks(locks LockProvider, ttl, wait time.Duration) Option {
	return func(e *Engine) {
		e.locks = locks
		if ttl > 0 {
			e.lockTTL = ttl
		}
		if wait > 0 {
			e.lockWait = wait
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(config ProviderConfig, store Store, blobs BlobReader, opts ...Option) *Engine {
	logger := logrus.StandardLogger()
	e := &Engine{
		client:   NewClient(config, nil),
		builder:  NewBuilder(blobs, logger),
		store:    store,
		lockTTL:  defaultLockTTL,
		lockWait: defaultLockWait,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Builder() *Builder {
	return e.builder
}

func (e *Engine) acquire(ctx context.Context, certificationID string) (func(), error) {
	if e.locks == nil {
		return func() {}, nil
	}
	locker := e.locks(LockKey(certificationID))
	if err := locker.WaitLock(ctx, e.lockTTL, e.lockWait); err != nil {
		return nil, err
	}
	return func() {
		if err := locker.Unlock(context.Background()); err != nil {
			e.logger.WithField("certification_id", certificationID).Warnf("failed to release lock: %v", err)
		}
	}, nil
}

// reload replaces cert with the stored row. Callers hold the certification's
// lock, so every decision after it sees the latest status.
func (e *Engine) reload(ctx context.Context, cert *model.Certification) error {
	fresh, err := e.store.GetCertificationByID(ctx, cert.CertificationID)
	if err != nil {
		return err
	}
	*cert = *fresh
	return nil
}

func notSubmittable(cert *model.Certification) Outcome {
	return failure(fmt.Sprintf("La certificación en estado %s no puede ser enviada", cert.Status), map[string]interface{}{
		"status": string(cert.Status),
	})
}

func checkable(cert *model.Certification) (Outcome, bool) {
	if cert.Status != model.StatusPending && cert.Status != model.StatusInReview {
		return failure(fmt.Sprintf("La certificación en estado %s no tiene consultas pendientes", cert.Status), map[string]interface{}{
			"status": string(cert.Status),
		}), false
	}
	if cert.ReferenceTransaction == "" {
		return failure("La certificación no tiene referencia de transacción", nil), false
	}
	return Outcome{}, true
}

func (e *Engine) persist(ctx context.Context, cert *model.Certification, update model.CertificationUpdate) error {
	if err := e.store.ApplyCertificationUpdate(ctx, cert.CertificationID, update); err != nil {
		return err
	}
	update.Apply(cert)
	return nil
}

func iso(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Submit sends the certification to the collector endpoint and records the
// outcome. It always leaves the certification in_review, rejected or draft
// once the submission has started, and never panics.
func (e *Engine) Submit(ctx context.Context, cert *model.Certification) (out Outcome) {
	log := e.logger.WithFields(logrus.Fields{
		"certification_id":      cert.CertificationID,
		"reference_transaction": cert.ReferenceTransaction,
	})

	if !cert.Status.IsSubmittable() {
		return notSubmittable(cert)
	}

	release, err := e.acquire(ctx, cert.CertificationID)
	if err != nil {
		log.Warnf("submission skipped, certification is locked: %v", err)
		return failure("La certificación está siendo procesada, intente nuevamente", map[string]interface{}{"error": err.Error()})
	}
	defer release()

	if err := e.reload(ctx, cert); err != nil {
		log.Errorf("failed to reload certification before submission: %v", err)
		return failure("No se pudo cargar la certificación", map[string]interface{}{"error": err.Error()})
	}
	if !cert.Status.IsSubmittable() {
		log.WithField("status", cert.Status).Warn("submission skipped, certification changed while waiting for the lock")
		return notSubmittable(cert)
	}

	startedAt := e.now()
	started := model.CertificationUpdate{
		Status:           model.StatusPending,
		ValidationStatus: model.ValidationValidating,
		RejectionReason:  ptr.String(""),
		SubmittedAt:      ptr.Time(startedAt),
		Events: []model.CertificationEvent{
			model.NewCertificationEvent(cert.CertificationID, model.EventSubmissionStarted, map[string]interface{}{
				"submitted_at": iso(startedAt),
			}, startedAt),
		},
	}
	if err := e.persist(ctx, cert, started); err != nil {
		log.Errorf("failed to mark certification as pending: %v", err)
		return failure("No se pudo registrar el envío de la certificación", map[string]interface{}{"error": err.Error()})
	}

	// From here on every path ends by persisting exactly one terminal update.
	var update model.CertificationUpdate
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("submission panicked: %v", r)
			update, out = e.submissionFailed(cert, fmt.Errorf("%v", r), startedAt)
		}
		if err := e.persist(context.WithoutCancel(ctx), cert, update); err != nil {
			log.Errorf("failed to persist submission outcome: %v", err)
			out = failure("No se pudo guardar el resultado del envío", map[string]interface{}{"error": err.Error()})
		}
	}()

	payload, err := e.builder.Build(ctx, cert)
	if err != nil {
		update, out = e.submissionFailed(cert, err, startedAt)
		return out
	}

	resp, err := e.client.Submit(ctx, payload)
	switch {
	case err != nil:
		log.Errorf("submission transport failure: %v", err)
		update, out = e.submissionFailed(cert, err, startedAt)
	case resp.Data == nil && resp.StatusCode == 200:
		log.Warnf("submission answered 200 with an unparsable body, treating as registered: %v", resp.ParseErr)
		synthesized := map[string]interface{}{"validationStatus": string(model.ValidationRegistered)}
		update, out = e.submissionAccepted(cert, resp, synthesized, startedAt)
	case resp.Data != nil && resp.OK():
		update, out = e.submissionAccepted(cert, resp, resp.Data, startedAt)
	default:
		update, out = e.submissionRejected(cert, resp)
		log.WithField("status_code", resp.StatusCode).Warnf("submission rejected: %s", out.Message)
	}
	return out
}

func (e *Engine) submissionAccepted(cert *model.Certification, resp *Response, data map[string]interface{}, startedAt time.Time) (model.CertificationUpdate, Outcome) {
	respondedAt := e.now()
	validation := acceptedValidationStatus(data)

	update := model.CertificationUpdate{
		Status:           model.StatusInReview,
		ValidationStatus: validation,
		RejectionReason:  ptr.String(""),
		Events: []model.CertificationEvent{
			model.NewCertificationEvent(cert.CertificationID, model.EventSubmissionAccepted, map[string]interface{}{
				"status_code":  resp.StatusCode,
				"response":     data,
				"submitted_at": iso(startedAt),
				"responded_at": iso(respondedAt),
			}, respondedAt),
		},
	}
	return update, Outcome{
		Success: true,
		Message: "Certificación enviada correctamente a FirmaSegura",
		Data:    data,
	}
}

func (e *Engine) submissionRejected(cert *model.Certification, resp *Response) (model.CertificationUpdate, Outcome) {
	at := e.now()
	httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	reason := errorMessage(resp.Data, httpErr.Error())

	details := map[string]interface{}{
		"status_code": resp.StatusCode,
		"error_body":  string(resp.Body),
		"message":     reason,
		"failed_at":   iso(at),
	}
	update := model.CertificationUpdate{
		Status:           model.StatusRejected,
		ValidationStatus: model.ValidationError,
		RejectionReason:  ptr.String(reason),
		Events: []model.CertificationEvent{
			model.NewCertificationEvent(cert.CertificationID, model.EventSubmissionRejected, details, at),
		},
	}
	return update, failure(reason, details)
}

func (e *Engine) submissionFailed(cert *model.Certification, cause error, startedAt time.Time) (model.CertificationUpdate, Outcome) {
	at := e.now()
	reason := connectionErrorPrefix + cause.Error()

	details := map[string]interface{}{
		"error":        cause.Error(),
		"submitted_at": iso(startedAt),
		"failed_at":    iso(at),
	}
	update := model.CertificationUpdate{
		Status:           model.StatusDraft,
		ValidationStatus: model.ValidationError,
		RejectionReason:  ptr.String(reason),
		Events: []model.CertificationEvent{
			model.NewCertificationEvent(cert.CertificationID, model.EventSubmissionFailed, details, at),
		},
	}
	return update, failure("Error de conexión con FirmaSegura, la certificación puede reenviarse", details)
}

// CheckStatus queries the authority for a pending or in_review certification and
// applies the reported status when it moves the certification forward or rejects it.
func (e *Engine) CheckStatus(ctx context.Context, cert *model.Certification) (out Outcome) {
	log := e.logger.WithFields(logrus.Fields{
		"certification_id":      cert.CertificationID,
		"reference_transaction": cert.ReferenceTransaction,
	})
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("status check panicked: %v", r)
			out = failure("Error inesperado al consultar el estado en FirmaSegura", map[string]interface{}{"error": fmt.Sprint(r)})
		}
	}()

	if out, ok := checkable(cert); !ok {
		return out
	}

	release, err := e.acquire(ctx, cert.CertificationID)
	if err != nil {
		log.Warnf("status check skipped, certification is locked: %v", err)
		return failure("La certificación está siendo procesada, intente nuevamente", map[string]interface{}{"error": err.Error()})
	}
	defer release()

	if err := e.reload(ctx, cert); err != nil {
		log.Errorf("failed to reload certification before status check: %v", err)
		return failure("No se pudo cargar la certificación", map[string]interface{}{"error": err.Error()})
	}
	if out, ok := checkable(cert); !ok {
		log.WithField("status", cert.Status).Warn("status check skipped, certification changed while waiting for the lock")
		return out
	}

	resp, err := e.client.Status(ctx, cert.ReferenceTransaction)
	if err != nil {
		log.Errorf("status check transport failure: %v", err)
		return failure("No se pudo consultar el estado en FirmaSegura", map[string]interface{}{"error": err.Error()})
	}
	if !resp.OK() {
		log.WithField("status_code", resp.StatusCode).Warn("status check returned an error status")
		return failure("No se pudo consultar el estado en FirmaSegura", map[string]interface{}{
			"status_code": resp.StatusCode,
			"error_body":  string(resp.Body),
		})
	}
	if resp.Data == nil {
		log.Warnf("status check returned an unparsable body: %v", resp.ParseErr)
		return failure("Respuesta inválida de FirmaSegura", map[string]interface{}{
			"error":      resp.ParseErr.Error(),
			"error_body": string(resp.Body),
		})
	}

	next, ok := mapStatus(resp.Data)
	if !ok {
		log.WithField("response", string(resp.Body)).Warn("status response has no status field, leaving certification untouched")
		return Outcome{Success: true, Message: "Respuesta de FirmaSegura sin estado", Data: resp.Data}
	}
	if next == "" || !cert.ValidationStatus.CanAdvanceTo(next) {
		return Outcome{Success: true, Message: "Sin cambios en el estado de la certificación", Data: resp.Data}
	}

	at := e.now()
	workflow := model.WorkflowStatusFor(cert.Status, next)
	update := model.CertificationUpdate{
		Status:           workflow,
		ValidationStatus: next,
		Events: []model.CertificationEvent{
			model.NewCertificationEvent(cert.CertificationID, model.EventStatusChanged, map[string]interface{}{
				"from_status":            string(cert.Status),
				"to_status":              string(workflow),
				"from_validation_status": string(cert.ValidationStatus),
				"to_validation_status":   string(next),
				"response":               resp.Data,
				"checked_at":             iso(at),
			}, at),
		},
	}
	switch {
	case next == model.ValidationGenerated:
		update.ValidatedAt = ptr.Time(at)
	case next.IsRejection():
		reason := statusMessage(resp.Data)
		if reason == "" {
			reason = fmt.Sprintf("FirmaSegura reportó el estado %s", next)
		}
		update.RejectionReason = ptr.String(reason)
	}

	if err := e.persist(ctx, cert, update); err != nil {
		log.Errorf("failed to persist status change: %v", err)
		return failure("No se pudo guardar el nuevo estado de la certificación", map[string]interface{}{"error": err.Error()})
	}

	log.WithFields(logrus.Fields{"validation_status": next, "status": workflow}).Info("certification status updated")
	return Outcome{Success: true, Message: fmt.Sprintf("Estado actualizado a %s", next), Data: resp.Data}
}
