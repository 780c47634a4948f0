// internal/workers/assistant/process-chat-command/config.go
package processchatcommand

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
