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
	"embed"
	"fmt"
	"time"

	"github.com/blnkfinance/certify/config"
	"github.com/blnkfinance/certify/database"
	"github.com/blnkfinance/certify/firmasegura"
	redlock "github.com/blnkfinance/certify/internal/lock"
	redis_db "github.com/blnkfinance/certify/internal/redis-db"
	"github.com/blnkfinance/certify/internal/storage"
	"github.com/blnkfinance/certify/model"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("certify.certifications")

// Certify ties the certification store to the FirmaSegura workflow.
type Certify struct {
	queue      *Queue
	redis      redis.UniversalClient
	datasource database.IDataSource
	engine     *firmasegura.Engine
	config     *config.Configuration
	now        func() time.Time
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewCertify builds the service from the loaded configuration. Extra engine options are applied
// after the defaults, so callers can swap the HTTP transport or the logger.
func NewCertify(db database.IDataSource, opts ...firmasegura.Option) (*Certify, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	redisClient, err := redis_db.NewRedisClient(configuration.Redis.Dns, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	blobs, err := storage.New(configuration.Storage)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}

	providerConfig, err := ProviderConfig(configuration.FirmaSegura)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}

	queue, err := NewQueue(configuration)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}

	client := redisClient.Client()
	locks := func(key string) firmasegura.Locker {
		return redlock.NewLocker(client, key, model.GenerateUUIDWithSuffix("lock"))
	}

	engineOpts := append([]firmasegura.Option{
		firmasegura.WithLogger(logrus.StandardLogger()),
		firmasegura.WithLocks(locks,
			time.Duration(configuration.Lock.TTLSeconds)*time.Second,
			time.Duration(configuration.Lock.WaitSeconds)*time.Second),
	}, opts...)

	return &Certify{
		queue:      queue,
		redis:      client,
		datasource: db,
		engine:     firmasegura.NewEngine(providerConfig, db, blobs, engineOpts...),
		config:     configuration,
		now:        time.Now,
	}, nil
}

// ProviderConfig turns the service configuration into the FirmaSegura client settings.
// Values from the optional provider file take precedence.
func ProviderConfig(cfg config.FirmaSeguraConfig) (firmasegura.ProviderConfig, error) {
	base := firmasegura.ProviderConfig{
		BaseURL:        cfg.BaseURL,
		Token:          cfg.Token,
		TimeoutSeconds: cfg.TimeoutSeconds,
		Endpoints: firmasegura.EndpointsConfig{
			Collector: cfg.CollectorPath,
			Status:    cfg.StatusPath,
		},
	}

	if cfg.ProviderFile != "" {
		fromFile, err := firmasegura.LoadConfig(cfg.ProviderFile)
		if err != nil {
			return firmasegura.ProviderConfig{}, fmt.Errorf("error loading firmasegura provider file: %w", err)
		}
		base = fromFile.Merge(base)
	}

	if err := base.Validate(); err != nil {
		return firmasegura.ProviderConfig{}, fmt.Errorf("invalid firmasegura configuration: %w", err)
	}
	return base, nil
}

// Engine exposes the workflow engine, e.g. for the background poller.
func (c *Certify) Engine() *firmasegura.Engine {
	return c.engine
}

func (c *Certify) Queue() *Queue {
	return c.queue
}

// Close releases the queue and redis connections.
func (c *Certify) Close() error {
	if err := c.queue.Close(); err != nil {
		return err
	}
	return c.redis.Close()
}
