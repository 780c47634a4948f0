// internal/workers/assistant/process-voice-command/config.go
package processvoicecommand

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
