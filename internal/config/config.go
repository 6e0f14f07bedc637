package config

import (
	"fmt"
	"os"
	"strconv"

	"form4qa/internal/domain"

	"gopkg.in/yaml.v3"
)

// Config form4qa runtime configuration, read from the environment.
type Config struct {
	HTTP struct {
		Addr           string
		MaxUploadBytes int64
	}
	Store struct {
		Backend string // "file" or "memory"
		DataDir string
	}
	Log struct {
		Level  string
		Format string
	}
	Ingest struct {
		HeaderRow int
	}
	// applied to newly created projects
	Testing domain.TestConfiguration
}

const (
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Load reads the environment. Only a broken TESTING_CONFIG_FILE is an error;
// malformed numbers fall back to defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.MaxUploadBytes = int64(parseInt(getEnv("MAX_UPLOAD_MB", "20"), 20)) << 20

	cfg.Store.Backend = getEnv("STORE_BACKEND", BackendFile)
	cfg.Store.DataDir = getEnv("DATA_DIR", "./data")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Ingest.HeaderRow = parseInt(getEnv("FORM4_HEADER_ROW", "10"), 10)

	cfg.Testing = domain.DefaultTestConfiguration()
	if path := getEnv("TESTING_CONFIG_FILE", ""); path != "" {
		tc, err := LoadTestConfiguration(path)
		if err != nil {
			return nil, err
		}
		cfg.Testing = tc
	}
	return cfg, nil
}

// LoadTestConfiguration reads a YAML file on top of the defaults, so the file
// only needs the keys it changes.
func LoadTestConfiguration(path string) (domain.TestConfiguration, error) {
	tc := domain.DefaultTestConfiguration()
	raw, err := os.ReadFile(path)
	if err != nil {
		return tc, fmt.Errorf("failed to read testing config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &tc); err != nil {
		return tc, fmt.Errorf("failed to parse testing config %s: %w", path, err)
	}
	if err := tc.Validate(); err != nil {
		return tc, fmt.Errorf("testing config %s: %w", path, err)
	}
	return tc, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return def
	}
	return i
}
