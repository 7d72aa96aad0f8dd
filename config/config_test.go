package config

import (
	"reflect"
	"testing"
	"time"
)

func TestGetEnvDefaults(t *testing.T) {
	if got := getEnv("DOES_NOT_EXIST_XYZ", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := getIntEnv("TEST_INT", 7); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	t.Setenv("TEST_INT", "not a number")
	if got := getIntEnv("TEST_INT", 7); got != 7 {
		t.Errorf("expected default 7 for invalid value, got %d", got)
	}
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION", "300ms")
	if got := getDurationEnv("TEST_DURATION", "1s"); got != 300*time.Millisecond {
		t.Errorf("expected 300ms, got %v", got)
	}

	t.Setenv("TEST_DURATION", "garbage")
	if got := getDurationEnv("TEST_DURATION", "1s"); got != time.Second {
		t.Errorf("expected default 1s for invalid value, got %v", got)
	}
}

func TestGetListEnv(t *testing.T) {
	t.Setenv("TEST_REGIONS", "Canadian, Italian ,Indian,")
	got := getListEnv("TEST_REGIONS", []string{"Swedish"})
	want := []string{"Canadian", "Italian", "Indian"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	t.Setenv("TEST_REGIONS", "")
	if got := getListEnv("TEST_REGIONS", []string{"Swedish"}); !reflect.DeepEqual(got, []string{"Swedish"}) {
		t.Errorf("expected default list, got %v", got)
	}
}
