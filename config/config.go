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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT                = "5001"
	DEFAULT_FIRMASEGURA_TIMEOUT = 60
	DEFAULT_COLLECTOR_PATH      = "/collector/request"
	DEFAULT_STATUS_PATH         = "/gateway/request/status"
	DEFAULT_SUBMISSION_QUEUE    = "certification_submission"
	DEFAULT_SWEEP_QUEUE         = "certification_sweep"
	DEFAULT_MONITORING_PORT     = "5004"
	DEFAULT_LOCK_TTL            = 120
	DEFAULT_LOCK_WAIT           = 5
	DEFAULT_COUNTRY_CODE        = "ECU"
	DEFAULT_DOCUMENT_TYPE       = "CEDULA"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL    bool   `json:"ssl" envconfig:"CERTIFY_SERVER_SSL"`
	Domain string `json:"domain" envconfig:"CERTIFY_SERVER_SSL_DOMAIN"`
	Email  string `json:"ssl_email" envconfig:"CERTIFY_SERVER_SSL_EMAIL"`
	Port   string `json:"port" envconfig:"CERTIFY_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"CERTIFY_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"CERTIFY_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"CERTIFY_REDIS_SKIP_TLS_VERIFY"`
}

// FirmaSeguraConfig points the service at the certification authority.
type FirmaSeguraConfig struct {
	BaseURL        string `json:"base_url" envconfig:"CERTIFY_FIRMASEGURA_BASE_URL"`
	Token          string `json:"token" envconfig:"CERTIFY_FIRMASEGURA_TOKEN"`
	TimeoutSeconds int    `json:"timeout_seconds" envconfig:"CERTIFY_FIRMASEGURA_TIMEOUT_SECONDS"`
	CollectorPath  string `json:"collector_path" envconfig:"CERTIFY_FIRMASEGURA_COLLECTOR_PATH"`
	StatusPath     string `json:"status_path" envconfig:"CERTIFY_FIRMASEGURA_STATUS_PATH"`
	// ProviderFile optionally points at a YAML file overriding the fields above.
	ProviderFile string `json:"provider_file" envconfig:"CERTIFY_FIRMASEGURA_PROVIDER_FILE"`
}

func (f FirmaSeguraConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

type MinioConfig struct {
	Endpoint  string `json:"endpoint" envconfig:"CERTIFY_MINIO_ENDPOINT"`
	AccessKey string `json:"access_key" envconfig:"CERTIFY_MINIO_ACCESS_KEY"`
	SecretKey string `json:"secret_key" envconfig:"CERTIFY_MINIO_SECRET_KEY"`
	Bucket    string `json:"bucket" envconfig:"CERTIFY_MINIO_BUCKET"`
	Region    string `json:"region" envconfig:"CERTIFY_MINIO_REGION"`
	UseSSL    bool   `json:"use_ssl" envconfig:"CERTIFY_MINIO_USE_SSL"`
}

// StorageConfig selects where uploaded certification documents live.
type StorageConfig struct {
	Driver  string      `json:"driver" envconfig:"CERTIFY_STORAGE_DRIVER"` // disk or minio
	RootDir string      `json:"root_dir" envconfig:"CERTIFY_STORAGE_ROOT_DIR"`
	Minio   MinioConfig `json:"minio"`
}

type QueueConfig struct {
	SubmissionQueue string `json:"submission_queue" envconfig:"CERTIFY_QUEUE_SUBMISSION"`
	SweepQueue      string `json:"sweep_queue" envconfig:"CERTIFY_QUEUE_SWEEP"`
	MonitoringPort  string `json:"monitoring_port" envconfig:"CERTIFY_QUEUE_MONITORING_PORT"`
}

type PollerConfig struct {
	IntervalSeconds int    `json:"interval_seconds" envconfig:"CERTIFY_POLLER_INTERVAL_SECONDS"`
	SweepCron       string `json:"sweep_cron" envconfig:"CERTIFY_POLLER_SWEEP_CRON"`
}

type LockConfig struct {
	TTLSeconds  int `json:"ttl_seconds" envconfig:"CERTIFY_LOCK_TTL_SECONDS"`
	WaitSeconds int `json:"wait_seconds" envconfig:"CERTIFY_LOCK_WAIT_SECONDS"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"CERTIFY_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"CERTIFY_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"CERTIFY_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url" envconfig:"CERTIFY_SLACK_WEBHOOK_URL"`
}

type Notification struct {
	Slack SlackWebhook `json:"slack"`
}

// OtelExporter configures where traces are shipped when telemetry is enabled.
type OtelExporter struct {
	OtelExporterOtlpProtocol string `json:"otel_exporter_otlp_protocol" envconfig:"OTEL_EXPORTER_OTLP_PROTOCOL"`
	OtelExporterOtlpEndpoint string `json:"otel_exporter_otlp_endpoint" envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpHeaders  string `json:"otel_exporter_otlp_headers" envconfig:"OTEL_EXPORTER_OTLP_HEADERS"`
}

type Configuration struct {
	ProjectName     string            `json:"project_name" envconfig:"CERTIFY_PROJECT_NAME"`
	EnableTelemetry bool              `json:"enable_telemetry" envconfig:"CERTIFY_ENABLE_TELEMETRY"`
	CountryCode     string            `json:"country_code" envconfig:"CERTIFY_COUNTRY_CODE"`
	DocumentType    string            `json:"document_type" envconfig:"CERTIFY_DOCUMENT_TYPE"`
	Server          ServerConfig      `json:"server"`
	DataSource      DataSourceConfig  `json:"data_source"`
	Redis           RedisConfig       `json:"redis"`
	FirmaSegura     FirmaSeguraConfig `json:"firmasegura"`
	Storage         StorageConfig     `json:"storage"`
	Queue           QueueConfig       `json:"queue"`
	Poller          PollerConfig      `json:"poller"`
	Lock            LockConfig        `json:"lock"`
	RateLimit       RateLimitConfig   `json:"rate_limit"`
	Notification    Notification      `json:"notification"`
	OtelExporter    OtelExporter      `json:"otel_exporter"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("certify", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return nil
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called certify.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Certify Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.FirmaSegura.BaseURL = strings.TrimRight(strings.TrimSpace(cnf.FirmaSegura.BaseURL), "/")

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.FirmaSegura.BaseURL == "" && cnf.FirmaSegura.ProviderFile == "" {
		log.Println("Warning: FirmaSegura base URL is empty. Submissions will fail until it is configured.")
	}
	if cnf.FirmaSegura.TimeoutSeconds <= 0 {
		cnf.FirmaSegura.TimeoutSeconds = DEFAULT_FIRMASEGURA_TIMEOUT
	}
	if cnf.FirmaSegura.CollectorPath == "" {
		cnf.FirmaSegura.CollectorPath = DEFAULT_COLLECTOR_PATH
	}
	if cnf.FirmaSegura.StatusPath == "" {
		cnf.FirmaSegura.StatusPath = DEFAULT_STATUS_PATH
	}

	if cnf.CountryCode == "" {
		cnf.CountryCode = DEFAULT_COUNTRY_CODE
	}
	if cnf.DocumentType == "" {
		cnf.DocumentType = DEFAULT_DOCUMENT_TYPE
	}

	if cnf.Storage.Driver == "" {
		cnf.Storage.Driver = "disk"
	}
	if cnf.Storage.Driver == "disk" && cnf.Storage.RootDir == "" {
		cnf.Storage.RootDir = "./storage"
	}
	if cnf.Storage.Driver == "minio" && cnf.Storage.Minio.Bucket == "" {
		return errors.New("minio bucket is required when storage driver is minio")
	}

	if cnf.Queue.SubmissionQueue == "" {
		cnf.Queue.SubmissionQueue = DEFAULT_SUBMISSION_QUEUE
	}
	if cnf.Queue.SweepQueue == "" {
		cnf.Queue.SweepQueue = DEFAULT_SWEEP_QUEUE
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = DEFAULT_MONITORING_PORT
	}

	if cnf.Lock.TTLSeconds <= 0 {
		cnf.Lock.TTLSeconds = DEFAULT_LOCK_TTL
	}
	if cnf.Lock.WaitSeconds <= 0 {
		cnf.Lock.WaitSeconds = DEFAULT_LOCK_WAIT
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// SetOtelExporterEnvs exports the configured OTLP settings so the trace exporter picks them up.
func SetOtelExporterEnvs() error {
	cnf, err := Fetch()
	if err != nil {
		return err
	}
	envs := map[string]string{
		"OTEL_EXPORTER_OTLP_PROTOCOL": cnf.OtelExporter.OtelExporterOtlpProtocol,
		"OTEL_EXPORTER_OTLP_ENDPOINT": cnf.OtelExporter.OtelExporterOtlpEndpoint,
		"OTEL_EXPORTER_OTLP_HEADERS":  cnf.OtelExporter.OtelExporterOtlpHeaders,
	}
	for key, value := range envs {
		if value == "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
