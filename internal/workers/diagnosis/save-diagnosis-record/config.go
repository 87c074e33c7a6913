// internal/workers/diagnosis/save-diagnosis-record/config.go
package savediagnosisrecord

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
