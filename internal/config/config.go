// Package config provides configuration loading for the dbregistry service.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/nucleus/dbregistry/internal/logx"
	"github.com/nucleus/dbregistry/pkg/registry"
)

// Config holds service configuration.
type Config struct {
	// ConnectionsFile is the YAML file listing connections to provision.
	ConnectionsFile string
	// DefaultConnection, when set, is promoted to "default" after provisioning.
	DefaultConnection string

	GRPCPort int

	// HealthInterval re-probes registered connections this often, in seconds.
	// Zero disables re-probing.
	HealthIntervalSecs int

	Log logx.Options
}

// Load loads configuration from environment.
func Load() *Config {
	return &Config{
		ConnectionsFile:    getEnv("DBREGISTRY_CONFIG", "./connections.yaml"),
		DefaultConnection:  getEnv("DBREGISTRY_DEFAULT", ""),
		GRPCPort:           getEnvInt("DBREGISTRY_GRPC_PORT", 50061),
		HealthIntervalSecs: getEnvInt("DBREGISTRY_HEALTH_INTERVAL_SECS", 30),
		Log: logx.Options{
			Level:     getEnv("DBREGISTRY_LOG_LEVEL", "info"),
			File:      getEnv("DBREGISTRY_LOG_FILE", ""),
			MaxSizeMB: getEnvInt("DBREGISTRY_LOG_MAX_SIZE_MB", 10),
			MaxFiles:  getEnvInt("DBREGISTRY_LOG_MAX_FILES", 5),
		},
	}
}

// connectionsFile is the on-disk shape of the connections file.
type connectionsFile struct {
	Connections []registry.Config `yaml:"connections"`
}

// LoadConnections reads provision configs from a YAML file. ${VAR} references
// are expanded from the environment before parsing.
func LoadConnections(path string) ([]registry.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read connections file: %w", err)
	}
	return ParseConnections(data)
}

// ParseConnections parses the contents of a connections file.
func ParseConnections(data []byte) ([]registry.Config, error) {
	var file connectionsFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return nil, fmt.Errorf("failed to parse connections file: %w", err)
	}
	if len(file.Connections) == 0 {
		return nil, fmt.Errorf("connections file defines no connections")
	}
	return file.Connections, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
