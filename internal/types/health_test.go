package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHealthState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state HealthState
		want  bool
	}{
		{"healthy is valid", HealthStateHealthy, true},
		{"degraded is valid", HealthStateDegraded, true},
		{"unhealthy is valid", HealthStateUnhealthy, true},
		{"empty is invalid", HealthState(""), false},
		{"unknown is invalid", HealthState("broken"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHealthState_JSON(t *testing.T) {
	data, err := json.Marshal(HealthStateDegraded)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"degraded"` {
		t.Errorf("Marshal() = %s, want %q", data, "degraded")
	}

	var state HealthState
	if err := json.Unmarshal([]byte(`"healthy"`), &state); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if state != HealthStateHealthy {
		t.Errorf("Unmarshal() = %v, want %v", state, HealthStateHealthy)
	}

	if err := json.Unmarshal([]byte(`"bogus"`), &state); err == nil {
		t.Error("Unmarshal() of invalid state succeeded, want error")
	}
}

func TestHealthStatus_Constructors(t *testing.T) {
	before := time.Now()

	tests := []struct {
		name   string
		status HealthStatus
		state  HealthState
	}{
		{"healthy", Healthy("all good"), HealthStateHealthy},
		{"degraded", Degraded("slow responses"), HealthStateDegraded},
		{"unhealthy", Unhealthy("connection refused"), HealthStateUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.status.State != tt.state {
				t.Errorf("State = %v, want %v", tt.status.State, tt.state)
			}
			if tt.status.CheckedAt.Before(before) {
				t.Errorf("CheckedAt = %v, want >= %v", tt.status.CheckedAt, before)
			}
		})
	}
}

func TestHealthStatus_Predicates(t *testing.T) {
	healthy := Healthy("ok")
	if !healthy.IsHealthy() {
		t.Error("IsHealthy() = false for healthy status")
	}
	if healthy.IsUnhealthy() {
		t.Error("IsUnhealthy() = true for healthy status")
	}

	unhealthy := Unhealthy("down")
	if unhealthy.IsHealthy() {
		t.Error("IsHealthy() = true for unhealthy status")
	}
	if !unhealthy.IsUnhealthy() {
		t.Error("IsUnhealthy() = false for unhealthy status")
	}

	degraded := Degraded("lagging")
	if degraded.IsHealthy() || degraded.IsUnhealthy() {
		t.Error("degraded status should be neither healthy nor unhealthy")
	}
}
