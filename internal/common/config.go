// Package common holds ambient, cross-cutting daemon concerns: config
// loading, the process logger, and the credentials file reader.
package common

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the ambient daemon configuration, loaded from config.toml in
// the working directory if present. Every field has a sane default so a
// missing file is not an error; config.toml only tunes operational knobs
// (worker counts, poll intervals, schedules), it never gates a feature
// on or off.
type Config struct {
	Ingress IngressConfig `toml:"ingress"`
	Egress  EgressConfig  `toml:"egress"`
	Queue   QueueConfig   `toml:"queue"`
	Logging LoggingConfig `toml:"logging"`
}

type IngressConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type EgressConfig struct {
	Host             string `toml:"host"`
	Port             int    `toml:"port"`
	MaxConsecFailure int    `toml:"max_consecutive_failures"`
}

type QueueConfig struct {
	NormalWorkers      int    `toml:"normal_workers"`
	PollInterval       string `toml:"poll_interval"`        // e.g. "200ms"
	PauseSleep         string `toml:"pause_sleep"`          // e.g. "3s"
	PauseMaxIterations int    `toml:"pause_max_iterations"` // e.g. 3
	JanitorSchedule    string `toml:"janitor_schedule"`     // cron expression
}

type LoggingConfig struct {
	Level  string   `toml:"level"`
	Output []string `toml:"output"`
}

// Default returns the configuration used when config.toml is absent.
func Default() *Config {
	return &Config{
		Ingress: IngressConfig{Host: "127.0.0.1", Port: 6000},
		Egress:  EgressConfig{Host: "127.0.0.1", Port: 6001, MaxConsecFailure: 10},
		Queue: QueueConfig{
			NormalWorkers:      3,
			PollInterval:       "200ms",
			PauseSleep:         "3s",
			PauseMaxIterations: 3,
			JanitorSchedule:    "*/5 * * * *",
		},
		Logging: LoggingConfig{Level: "info", Output: []string{"stdout"}},
	}
}

// Load reads config.toml from path, falling back to Default() for any
// field a partial file omits. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (q QueueConfig) Poll() time.Duration {
	d, err := time.ParseDuration(q.PollInterval)
	if err != nil {
		return 200 * time.Millisecond
	}
	return d
}

func (q QueueConfig) Pause() time.Duration {
	d, err := time.ParseDuration(q.PauseSleep)
	if err != nil {
		return 3 * time.Second
	}
	return d
}

// Credentials holds the shared ingress/egress key and the advisor API key
// parsed from credentials.txt: plain text, two non-empty lines.
type Credentials struct {
	SharedKey      string
	AdvisorAPIKey  string
}

// LoadCredentials reads the two-line credentials file. Any deviation
// (missing file, fewer than two non-empty lines) is a fatal, readable
// error.
func LoadCredentials(path string) (*Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("credentials file %q: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("credentials file %q: %w", path, err)
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("credentials file %q: expected two non-empty lines (shared_key, advisor_api_key), got %d", path, len(lines))
	}

	return &Credentials{SharedKey: lines[0], AdvisorAPIKey: lines[1]}, nil
}
