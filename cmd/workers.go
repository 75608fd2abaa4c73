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

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/blnkfinance/certify/config"
	"github.com/blnkfinance/certify/firmasegura"
	"github.com/blnkfinance/certify/internal/notification"
	redis_db "github.com/blnkfinance/certify/internal/redis-db"
	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.elastic.co/apm/module/apmlogrus/v2"
	"go.opentelemetry.io/otel"
)

func init() {
	logrus.AddHook(&apmlogrus.Hook{})
}

// processSubmission runs a queued certification submission.
func (c *certifyInstance) processSubmission(ctx context.Context, t *asynq.Task) error {
	ctx, span := otel.Tracer("certify.submissions.worker").Start(ctx, "Process Submission From Redis Queue")
	defer span.End()

	return c.certify.HandleSubmissionTask(ctx, t)
}

// processSweep runs one status sweep. Failures are reported to Slack but never retried.
func (c *certifyInstance) processSweep(ctx context.Context, t *asynq.Task) error {
	ctx, span := otel.Tracer("certify.sweep.worker").Start(ctx, "Process Status Sweep")
	defer span.End()

	if err := c.certify.HandleSweepTask(ctx, t); err != nil {
		notification.NotifyError(fmt.Errorf("certification status sweep failed: %w", err))
		return err
	}
	return nil
}

func initializeWorkerServer(conf *config.Configuration, queues map[string]int) (*asynq.Server, error) {
	redisOption, err := redis_db.QueueOptions(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	return asynq.NewServer(
		redisOption,
		asynq.Config{
			Concurrency: 1,
			Queues:      queues,
			Logger:      logrus.StandardLogger(),
		},
	), nil
}

func initializeTaskHandlers(c *certifyInstance, mux *asynq.ServeMux) {
	mux.HandleFunc(c.cnf.Queue.SubmissionQueue, c.processSubmission)
	mux.HandleFunc(c.cnf.Queue.SweepQueue, c.processSweep)
}

// startSweepScheduling keeps pollable certifications in sync with FirmaSegura. A cron
// expression schedules sweeps through the queue; otherwise a fixed interval poller runs
// in process. The returned func stops whichever was started.
func startSweepScheduling(c *certifyInstance) (func(), error) {
	if c.cnf.Poller.SweepCron != "" {
		redisOption, err := redis_db.QueueOptions(c.cnf.Redis.Dns, c.cnf.Redis.SkipTLSVerify)
		if err != nil {
			return nil, err
		}
		scheduler := asynq.NewScheduler(redisOption, &asynq.SchedulerOpts{Logger: logrus.StandardLogger()})
		if _, err := scheduler.Register(c.cnf.Poller.SweepCron, c.certify.Queue().SweepTask()); err != nil {
			return nil, fmt.Errorf("invalid sweep cron %q: %w", c.cnf.Poller.SweepCron, err)
		}
		if err := scheduler.Start(); err != nil {
			return nil, err
		}
		logrus.Infof("Certification sweep scheduled with cron %q", c.cnf.Poller.SweepCron)
		return scheduler.Shutdown, nil
	}

	if c.cnf.Poller.IntervalSeconds > 0 {
		poller := firmasegura.NewPoller(c.certify.Engine(), time.Duration(c.cnf.Poller.IntervalSeconds)*time.Second)
		poller.Start()
		return poller.Stop, nil
	}

	logrus.Warn("No sweep schedule configured, certification statuses are only refreshed on demand")
	return func() {}, nil
}

// workerCommands starts the queue workers, the sweep schedule and the queue monitor.
func workerCommands(c *certifyInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start certify workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			conf := c.cnf
			defer func() {
				if err := c.certify.Close(); err != nil {
					log.Printf("Error closing certify: %v", err)
				}
			}()

			shutdown, err := initializeObservability(ctx, conf, conf.ProjectName+" workers")
			if err != nil {
				log.Fatal(err)
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
			}()

			srv, err := initializeWorkerServer(conf, c.certify.Queue().Queues())
			if err != nil {
				log.Fatal(err)
			}

			mux := asynq.NewServeMux()
			initializeTaskHandlers(c, mux)

			stopSweeps, err := startSweepScheduling(c)
			if err != nil {
				log.Fatal(err)
			}
			defer stopSweeps()

			redisOption, err := redis_db.QueueOptions(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
			if err != nil {
				log.Fatal(err)
			}
			h := asynqmon.New(asynqmon.Options{
				RootPath:     "/monitoring",
				RedisConnOpt: redisOption,
			})

			go func() {
				monitoringAddr := fmt.Sprintf(":%s", conf.Queue.MonitoringPort)
				log.Printf("Asynqmon server listening on %s/monitoring", monitoringAddr)
				if err := http.ListenAndServe(monitoringAddr, h); err != nil {
					log.Fatalf("could not start asynqmon server: %v", err)
				}
			}()

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
		},
	}

	return cmd
}
