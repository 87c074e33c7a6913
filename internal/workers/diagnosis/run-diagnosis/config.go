// internal/workers/diagnosis/run-diagnosis/config.go
package rundiagnosis

import (
	"time"

	"visa-pathway-workers/internal/engine"
)

type Config struct {
	CacheTTL    time.Duration
	Timeout     time.Duration
	DefaultTopN int
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL:    24 * time.Hour,
		Timeout:     10 * time.Second,
		DefaultTopN: engine.DefaultTopN,
	}
}
