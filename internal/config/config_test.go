package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "DB_CONNECTION_STRING", "CHAT_SYNC_DEBOUNCE", "CHAT_RECOMMENDATIONS", "REPORT_RETENTION", "LLM_PROVIDER"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	// empty values are present, so getEnv returns them; parsed values fall back
	assert.Equal(t, 2*time.Second, cfg.Chat.SyncDebounce)
	assert.True(t, cfg.Chat.Recommendations)
	assert.Equal(t, time.Hour, cfg.Report.Retention)
	assert.Equal(t, "REPORT_GENERATION", cfg.Report.Topic)
	assert.Empty(t, cfg.Database.Connection)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("GO_ENV", "production")
	t.Setenv("CHAT_SYNC_DEBOUNCE", "500ms")
	t.Setenv("CHAT_RECOMMENDATIONS", "false")
	t.Setenv("REPORT_RETENTION", "15m")
	t.Setenv("LLM_PROVIDER", "ollama")

	cfg := Load()

	assert.Equal(t, "8080", cfg.App.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 500*time.Millisecond, cfg.Chat.SyncDebounce)
	assert.False(t, cfg.Chat.Recommendations)
	assert.Equal(t, 15*time.Minute, cfg.Report.Retention)
	assert.Equal(t, "ollama", cfg.Ai.LLMProvider)
}

func TestEnvParsers(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Minute},
		{"garbage", time.Minute},
		{"-5s", time.Minute},
		{"3s", 3 * time.Second},
	}
	for _, tt := range tests {
		t.Setenv("TEST_DURATION", tt.value)
		if got := getEnvAsDuration("TEST_DURATION", time.Minute); got != tt.want {
			t.Errorf("getEnvAsDuration(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
