package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{
			name:     "empty",
			value:    "",
			expected: nil,
		},
		{
			name:     "single value",
			value:    "10.0.0.0/8",
			expected: []string{"10.0.0.0/8"},
		},
		{
			name:     "multiple values with quotes and spaces",
			value:    ` "127.0.0.1", '10.0.0.0/8' ,, 192.168.1.4 `,
			expected: []string{"127.0.0.1", "10.0.0.0/8", "192.168.1.4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseList(tt.value)
			if len(result) != len(tt.expected) {
				t.Fatalf("parseList() length = %v, want %v (%v)", len(result), len(tt.expected), result)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("parseList()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", key: "TEST_BOOL", value: "true", def: false, expected: true},
		{name: "false value", key: "TEST_BOOL_FALSE", value: "false", def: true, expected: false},
		{name: "invalid value uses default", key: "TEST_BOOL_INVALID", value: "invalid", def: true, expected: true},
		{name: "missing variable uses default", key: "TEST_BOOL_MISSING", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_INVALID", "forty-two")

	if got := getenvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getenvInt() = %d, want 42", got)
	}
	if got := getenvInt("TEST_INT_INVALID", 7); got != 7 {
		t.Errorf("getenvInt() with invalid value = %d, want default 7", got)
	}
	if got := getenvInt("TEST_INT_MISSING", 3); got != 3 {
		t.Errorf("getenvInt() with missing value = %d, want default 3", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SHELF_DATA_DIR", dir)
	t.Setenv("SHELF_GLOBAL_PASSWORD", "hunter2")
	t.Setenv("SHELF_ALLOWED_CIDRS", "127.0.0.1,10.0.0.0/8")
	t.Setenv("SHELF_AUTO_REFRESH_INTERVAL", "0s")
	t.Setenv("SHELF_LOG_LEVEL", "error")

	cfg := Load()

	if cfg.DataDir != dir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dir)
	}
	if cfg.AutoRefreshInterval != 0 {
		t.Errorf("AutoRefreshInterval = %v, want 0", cfg.AutoRefreshInterval)
	}
	if len(cfg.AllowedCIDRS) != 2 {
		t.Errorf("AllowedCIDRS = %v, want 2 entries", cfg.AllowedCIDRS)
	}
	if cfg.RedisEnabled() {
		t.Error("RedisEnabled() = true without SHELF_REDIS_ADDR")
	}
	if cfg.GlobalPassword != "hunter2" {
		t.Errorf("GlobalPassword = %q, want hunter2", cfg.GlobalPassword)
	}
	if red := cfg.Redacted(); red.GlobalPassword == "hunter2" {
		t.Error("Redacted() leaked the global password")
	}
}

func TestDefaultDataDirHonorsXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_DATA_HOME", xdg)

	if got, want := defaultDataDir(), filepath.Join(xdg, "shelf"); got != want {
		t.Errorf("defaultDataDir() = %q, want %q", got, want)
	}
}
