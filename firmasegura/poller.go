package firmasegura

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blnkfinance/certify/model"
	"github.com/sirupsen/logrus"
)

type SweepFailure struct {
	CertificationID string `json:"certification_id"`
	Message         string `json:"message"`
}

// SweepSummary counts the outcome of one pass over all pollable certifications.
type SweepSummary struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Failures  []SweepFailure `json:"failures,omitempty"`
}

// Sweep checks the status of every pending or in_review certification, one at a
// time. A failing item is logged and counted and never stops the sweep.
func (e *Engine) Sweep(ctx context.Context) (SweepSummary, error) {
	var summary SweepSummary

	certs, err := e.store.GetCertificationsByStatus(ctx, model.PollableStatuses)
	if err != nil {
		return summary, fmt.Errorf("failed to load pollable certifications: %w", err)
	}

	summary.Total = len(certs)
	if len(certs) == 0 {
		e.logger.Debug("sweep: no certifications to check")
		return summary, nil
	}
	e.logger.Infof("sweep: checking %d certifications", len(certs))

	for i := range certs {
		cert := &certs[i]
		out := e.sweepOne(ctx, cert)
		if out.Success {
			summary.Succeeded++
			continue
		}
		summary.Failed++
		summary.Failures = append(summary.Failures, SweepFailure{CertificationID: cert.CertificationID, Message: out.Message})
		e.logger.WithFields(logrus.Fields{
			"certification_id": cert.CertificationID,
			"error_details":    out.ErrorDetails,
		}).Errorf("sweep: status check failed: %s", out.Message)
	}

	e.logger.WithFields(logrus.Fields{
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	}).Info("sweep finished")
	return summary, nil
}

func (e *Engine) sweepOne(ctx context.Context, cert *model.Certification) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = failure(fmt.Sprintf("status check panicked: %v", r), nil)
		}
	}()
	return e.CheckStatus(ctx, cert)
}

// Poller runs a sweep on a fixed interval.
type Poller struct {
	engine   *Engine
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewPoller(engine *Engine, interval time.Duration) *Poller {
	return &Poller{
		engine:   engine,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (p *Poller) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		logrus.Infof("FirmaSegura poller started with interval: %v", p.interval)

		p.sweep()

		for {
			select {
			case <-ticker.C:
				p.sweep()
			case <-p.stopCh:
				logrus.Info("FirmaSegura poller stopping...")
				return
			}
		}
	}()
}

func (p *Poller) Stop() {
	close(p.stopCh)
	p.wg.Wait()
	logrus.Info("FirmaSegura poller stopped")
}

func (p *Poller) sweep() {
	if _, err := p.engine.Sweep(context.Background()); err != nil {
		logrus.Errorf("Poller: %v", err)
	}
}
