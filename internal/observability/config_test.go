package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  TracingConfig
		wantErr bool
	}{
		{
			name:    "disabled config always valid",
			config:  TracingConfig{Enabled: false, Provider: "bogus"},
			wantErr: false,
		},
		{
			name: "valid otlp config",
			config: TracingConfig{
				Enabled:     true,
				Provider:    "otlp",
				Endpoint:    "localhost:4317",
				ServiceName: "stixtoneo",
				SampleRate:  1.0,
			},
			wantErr: false,
		},
		{
			name: "noop provider needs no endpoint",
			config: TracingConfig{
				Enabled:  true,
				Provider: "noop",
			},
			wantErr: false,
		},
		{
			name: "invalid provider",
			config: TracingConfig{
				Enabled:     true,
				Provider:    "jaeger",
				Endpoint:    "localhost:4317",
				ServiceName: "stixtoneo",
			},
			wantErr: true,
		},
		{
			name: "sample rate out of range",
			config: TracingConfig{
				Enabled:     true,
				Provider:    "otlp",
				Endpoint:    "localhost:4317",
				ServiceName: "stixtoneo",
				SampleRate:  1.5,
			},
			wantErr: true,
		},
		{
			name: "missing endpoint",
			config: TracingConfig{
				Enabled:     true,
				Provider:    "otlp",
				ServiceName: "stixtoneo",
				SampleRate:  1.0,
			},
			wantErr: true,
		},
		{
			name: "missing service name",
			config: TracingConfig{
				Enabled:    true,
				Provider:   "otlp",
				Endpoint:   "localhost:4317",
				SampleRate: 1.0,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoggingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  LoggingConfig
		wantErr bool
	}{
		{
			name:    "valid json stdout",
			config:  LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
			wantErr: false,
		},
		{
			name:    "valid text stderr",
			config:  LoggingConfig{Level: "debug", Format: "text", Output: "stderr"},
			wantErr: false,
		},
		{
			name:    "valid file output",
			config:  LoggingConfig{Level: "warn", Format: "json", Output: "/var/log/stixtoneo.log"},
			wantErr: false,
		},
		{
			name:    "invalid level",
			config:  LoggingConfig{Level: "verbose", Format: "json", Output: "stdout"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  LoggingConfig{Level: "info", Format: "xml", Output: "stdout"},
			wantErr: true,
		},
		{
			name:    "relative file output rejected",
			config:  LoggingConfig{Level: "info", Format: "json", Output: "logs/out.log"},
			wantErr: true,
		},
		{
			name:    "empty output rejected",
			config:  LoggingConfig{Level: "info", Format: "json", Output: ""},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
