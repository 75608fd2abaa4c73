package firmasegura

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimeout       = 60 * time.Second
	defaultCollectorPath = "/collector/request"
	defaultStatusPath    = "/gateway/request/status"
)

// ProviderConfig describes how to reach the certification authority.
type ProviderConfig struct {
	Name           string          `yaml:"name"`
	BaseURL        string          `yaml:"base_url"`
	Token          string          `yaml:"token"`
	AuthType       string          `yaml:"auth_type"`
	AuthHeader     string          `yaml:"auth_header"`
	TimeoutSeconds int             `yaml:"timeout_seconds"`
	Endpoints      EndpointsConfig `yaml:"endpoints"`
}

type EndpointsConfig struct {
	Collector string `yaml:"collector"`
	Status    string `yaml:"status"`
}

func LoadConfig(filepath string) (*ProviderConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return LoadConfigFromBytes(data)
}

func LoadConfigFromBytes(data []byte) (*ProviderConfig, error) {
	var config ProviderConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	config.Token = expandEnvVar(config.Token)
	config.BaseURL = expandEnvVar(config.BaseURL)
	return &config, nil
}

// Merge fills the empty fields of c from other.
func (c ProviderConfig) Merge(other ProviderConfig) ProviderConfig {
	if c.Name == "" {
		c.Name = other.Name
	}
	if c.BaseURL == "" {
		c.BaseURL = other.BaseURL
	}
	if c.Token == "" {
		c.Token = other.Token
	}
	if c.AuthType == "" {
		c.AuthType = other.AuthType
	}
	if c.AuthHeader == "" {
		c.AuthHeader = other.AuthHeader
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = other.TimeoutSeconds
	}
	if c.Endpoints.Collector == "" {
		c.Endpoints.Collector = other.Endpoints.Collector
	}
	if c.Endpoints.Status == "" {
		c.Endpoints.Status = other.Endpoints.Status
	}
	return c
}

// Validate checks the config and applies defaults for missing optional fields.
func (c *ProviderConfig) Validate() error {
	if c.Name == "" {
		c.Name = "firmasegura"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.Token == "" {
		return fmt.Errorf("token is required")
	}
	if c.Endpoints.Collector == "" {
		c.Endpoints.Collector = defaultCollectorPath
	}
	if c.Endpoints.Status == "" {
		c.Endpoints.Status = defaultStatusPath
	}
	return nil
}

func (c ProviderConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func expandEnvVar(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envName := value[2 : len(value)-1]
		if envValue := os.Getenv(envName); envValue != "" {
			return envValue
		}
	}
	return value
}
