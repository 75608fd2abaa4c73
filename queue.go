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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blnkfinance/certify/config"
	"github.com/blnkfinance/certify/internal/apierror"
	redis_db "github.com/blnkfinance/certify/internal/redis-db"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Queue represents the task queue used for background submissions and sweeps.
type Queue struct {
	Client          *asynq.Client
	Inspector       *asynq.Inspector
	submissionQueue string
	sweepQueue      string
}

// SubmissionTaskPayload is the payload of a queued certification submission.
type SubmissionTaskPayload struct {
	CertificationID string `json:"certification_id"`
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) (*Queue, error) {
	queueOptions, err := redis_db.QueueOptions(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %w", err)
	}

	return &Queue{
		Client:          asynq.NewClient(queueOptions),
		Inspector:       asynq.NewInspector(queueOptions),
		submissionQueue: conf.Queue.SubmissionQueue,
		sweepQueue:      conf.Queue.SweepQueue,
	}, nil
}

func submissionTaskID(certificationID string) string {
	return "submit_" + certificationID
}

// EnqueueSubmission queues a submission of the certification. FirmaSegura calls are never retried
// automatically, and a submission already waiting in the queue is not enqueued twice.
func (q *Queue) EnqueueSubmission(ctx context.Context, certificationID string) (*asynq.TaskInfo, error) {
	payload, err := json.Marshal(SubmissionTaskPayload{CertificationID: certificationID})
	if err != nil {
		return nil, err
	}

	taskID := submissionTaskID(certificationID)
	task := asynq.NewTask(q.submissionQueue, payload,
		asynq.TaskID(taskID),
		asynq.Queue(q.submissionQueue),
		asynq.MaxRetry(0),
	)
	info, err := q.Client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		info, err = q.replaceArchivedSubmission(ctx, taskID, task)
	}
	if err != nil {
		return nil, err
	}
	logrus.WithField("certification_id", certificationID).Info(" [*] Successfully enqueued certification submission")
	return info, nil
}

// replaceArchivedSubmission clears a failed submission left in the archive so the
// certification can be queued again. Waiting or running submissions are a conflict.
func (q *Queue) replaceArchivedSubmission(ctx context.Context, taskID string, task *asynq.Task) (*asynq.TaskInfo, error) {
	existing, err := q.Inspector.GetTaskInfo(q.submissionQueue, taskID)
	switch {
	case errors.Is(err, asynq.ErrTaskNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to inspect queued submission %s: %w", taskID, err)
	case existing.State != asynq.TaskStateArchived:
		return nil, apierror.NewAPIError(apierror.ErrConflict, "Certification is already queued for submission", existing.State.String())
	default:
		if err := q.Inspector.DeleteTask(q.submissionQueue, taskID); err != nil {
			return nil, fmt.Errorf("failed to remove archived submission %s: %w", taskID, err)
		}
		logrus.WithField("task_id", taskID).Info("removed archived submission before enqueueing again")
	}
	return q.Client.EnqueueContext(ctx, task)
}

// SweepTask returns the task that runs one status sweep.
func (q *Queue) SweepTask() *asynq.Task {
	return asynq.NewTask(q.sweepQueue, nil, asynq.Queue(q.sweepQueue), asynq.MaxRetry(0))
}

func (q *Queue) EnqueueSweep(ctx context.Context) (*asynq.TaskInfo, error) {
	return q.Client.EnqueueContext(ctx, q.SweepTask())
}

// Queues returns the worker queue priorities.
func (q *Queue) Queues() map[string]int {
	return map[string]int{
		q.submissionQueue: 2,
		q.sweepQueue:      1,
	}
}

func (q *Queue) Close() error {
	if err := q.Inspector.Close(); err != nil {
		return err
	}
	return q.Client.Close()
}

// HandleSubmissionTask processes a queued submission. Outcomes are recorded on the certification,
// so only an unreadable payload or a missing certification fails the task.
func (c *Certify) HandleSubmissionTask(ctx context.Context, t *asynq.Task) error {
	var payload SubmissionTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logrus.Error(err)
		return err
	}

	outcome, err := c.SubmitCertification(ctx, payload.CertificationID)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"certification_id": payload.CertificationID,
		"success":          outcome.Success,
	}).Info(" [*] Certification submission processed: ", outcome.Message)
	return nil
}

// HandleSweepTask runs a status sweep over every pollable certification.
func (c *Certify) HandleSweepTask(ctx context.Context, _ *asynq.Task) error {
	summary, err := c.SweepCertifications(ctx)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	}).Info(" [*] Certification status sweep finished")
	return nil
}
