package types

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorCode_Constants(t *testing.T) {
	tests := []struct {
		name     string
		code     ErrorCode
		expected string
	}{
		// Configuration errors
		{"CONFIG_LOAD_FAILED", CONFIG_LOAD_FAILED, "CONFIG_LOAD_FAILED"},
		{"CONFIG_PARSE_FAILED", CONFIG_PARSE_FAILED, "CONFIG_PARSE_FAILED"},
		{"CONFIG_VALIDATION_FAILED", CONFIG_VALIDATION_FAILED, "CONFIG_VALIDATION_FAILED"},
		{"CONFIG_NOT_FOUND", CONFIG_NOT_FOUND, "CONFIG_NOT_FOUND"},

		// Database errors
		{"DB_OPEN_FAILED", DB_OPEN_FAILED, "DB_OPEN_FAILED"},
		{"DB_MIGRATION_FAILED", DB_MIGRATION_FAILED, "DB_MIGRATION_FAILED"},
		{"DB_QUERY_FAILED", DB_QUERY_FAILED, "DB_QUERY_FAILED"},

		// Input errors
		{"INPUT_OPEN_FAILED", INPUT_OPEN_FAILED, "INPUT_OPEN_FAILED"},
		{"INPUT_READ_FAILED", INPUT_READ_FAILED, "INPUT_READ_FAILED"},
		{"INPUT_UNSUPPORTED", INPUT_UNSUPPORTED, "INPUT_UNSUPPORTED"},
		{"INPUT_RESET_FAILED", INPUT_RESET_FAILED, "INPUT_RESET_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.code) != tt.expected {
				t.Errorf("ErrorCode = %v, want %v", tt.code, tt.expected)
			}
		})
	}
}

func TestStixError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *StixError
		contains []string
	}{
		{
			name: "simple error without cause",
			err:  NewError(CONFIG_LOAD_FAILED, "failed to load configuration"),
			contains: []string{
				"[CONFIG_LOAD_FAILED]",
				"failed to load configuration",
			},
		},
		{
			name: "error with cause",
			err:  WrapError(DB_QUERY_FAILED, "query execution failed", errors.New("connection timeout")),
			contains: []string{
				"[DB_QUERY_FAILED]",
				"query execution failed",
				"connection timeout",
			},
		},
		{
			name: "retryable error",
			err:  NewRetryableError(INPUT_READ_FAILED, "stream interrupted"),
			contains: []string{
				"[INPUT_READ_FAILED]",
				"stream interrupted",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errMsg := tt.err.Error()
			for _, substring := range tt.contains {
				if !strings.Contains(errMsg, substring) {
					t.Errorf("Error() = %v, want to contain %v", errMsg, substring)
				}
			}
		})
	}
}

func TestStixError_Unwrap(t *testing.T) {
	tests := []struct {
		name      string
		err       *StixError
		wantCause bool
	}{
		{
			name:      "error without cause",
			err:       NewError(CONFIG_PARSE_FAILED, "parse error"),
			wantCause: false,
		},
		{
			name:      "error with cause",
			err:       WrapError(INPUT_OPEN_FAILED, "open failed", errors.New("no such file")),
			wantCause: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cause := tt.err.Unwrap()
			if tt.wantCause && cause == nil {
				t.Error("Unwrap() = nil, want non-nil cause")
			}
			if !tt.wantCause && cause != nil {
				t.Errorf("Unwrap() = %v, want nil", cause)
			}
		})
	}
}

func TestStixError_Is(t *testing.T) {
	baseErr := NewError(DB_QUERY_FAILED, "query failed")
	sameCodeErr := NewError(DB_QUERY_FAILED, "different message")
	differentCodeErr := NewError(DB_OPEN_FAILED, "open failed")
	standardErr := errors.New("standard error")

	tests := []struct {
		name   string
		err    *StixError
		target error
		want   bool
	}{
		{
			name:   "same error code matches",
			err:    baseErr,
			target: sameCodeErr,
			want:   true,
		},
		{
			name:   "different error code does not match",
			err:    baseErr,
			target: differentCodeErr,
			want:   false,
		},
		{
			name:   "standard error does not match",
			err:    baseErr,
			target: standardErr,
			want:   false,
		},
		{
			name:   "wrapped error with same code matches",
			err:    WrapError(DB_QUERY_FAILED, "wrapped", standardErr),
			target: baseErr,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Is(tt.target); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewError(t *testing.T) {
	err := NewError(INPUT_UNSUPPORTED, "unknown input format")

	if err.Code != INPUT_UNSUPPORTED {
		t.Errorf("Code = %v, want %v", err.Code, INPUT_UNSUPPORTED)
	}
	if err.Message != "unknown input format" {
		t.Errorf("Message = %v, want %v", err.Message, "unknown input format")
	}
	if err.Retryable {
		t.Error("Retryable = true, want false")
	}
	if err.Cause != nil {
		t.Errorf("Cause = %v, want nil", err.Cause)
	}
}

func TestNewRetryableError(t *testing.T) {
	err := NewRetryableError(DB_QUERY_FAILED, "database busy")

	if err.Code != DB_QUERY_FAILED {
		t.Errorf("Code = %v, want %v", err.Code, DB_QUERY_FAILED)
	}
	if !err.Retryable {
		t.Error("Retryable = false, want true")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapError(DB_OPEN_FAILED, "failed to open database", cause)

	if err.Code != DB_OPEN_FAILED {
		t.Errorf("Code = %v, want %v", err.Code, DB_OPEN_FAILED)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "retryable StixError",
			err:  NewRetryableError(DB_QUERY_FAILED, "busy"),
			want: true,
		},
		{
			name: "non-retryable StixError",
			err:  NewError(CONFIG_PARSE_FAILED, "bad yaml"),
			want: false,
		},
		{
			name: "wrapped retryable error",
			err:  WrapError(INPUT_READ_FAILED, "outer", NewRetryableError(DB_QUERY_FAILED, "inner")),
			want: false, // outermost StixError wins
		},
		{
			name: "standard error",
			err:  errors.New("plain"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{
			name: "direct StixError",
			err:  NewError(INPUT_UNSUPPORTED, "unknown extension"),
			want: INPUT_UNSUPPORTED,
		},
		{
			name: "standard error",
			err:  errors.New("plain"),
			want: "",
		},
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}
