package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fakeEnv(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coldmsg.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("", fakeEnv(nil))
	require.NoError(t, err)
	require.Equal(t, backendOpenAI, cfg.Backend)
	require.Equal(t, 0.7, cfg.Temperature)
	require.Equal(t, 0.95, cfg.TopP)
	require.Equal(t, 200, cfg.MaxTokens)
	require.Empty(t, cfg.APIKey)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
backend = "gemini"
model = "gemini-2.0-flash"
temperature = 0.4
max_tokens = 120
timeout = "15s"
load_timeout = "1m"
`)
	cfg, err := loadConfig(path, fakeEnv(nil))
	require.NoError(t, err)
	require.Equal(t, backendGemini, cfg.Backend)
	require.Equal(t, "gemini-2.0-flash", cfg.Model)
	require.Equal(t, 0.4, cfg.Temperature)
	require.Equal(t, 0.95, cfg.TopP)
	require.Equal(t, 120, cfg.MaxTokens)

	to, err := cfg.timeouts()
	require.NoError(t, err)
	require.Equal(t, 15*time.Second, to.invoke)
	require.Equal(t, time.Minute, to.load)
}

func TestLoadConfig_PathFromEnv(t *testing.T) {
	path := writeConfig(t, `backend = "none"`)
	cfg, err := loadConfig("", fakeEnv(map[string]string{"COLDMSG_CONFIG": path}))
	require.NoError(t, err)
	require.Equal(t, backendNone, cfg.Backend)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
backend = "openai"
model = "from-file"
`)
	cfg, err := loadConfig(path, fakeEnv(map[string]string{
		"COLDMSG_MODEL":      "from-env",
		"COLDMSG_MAX_TOKENS": "64",
		"COLDMSG_TOP_P":      "0.5",
		"PARAM_PREFIX":       "/coldmsg/dev",
	}))
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Model)
	require.Equal(t, 64, cfg.MaxTokens)
	require.Equal(t, 0.5, cfg.TopP)
	require.Equal(t, "/coldmsg/dev", cfg.ParamPrefix)
}

func TestLoadConfig_MalformedNumbersKeepDefaults(t *testing.T) {
	cfg, err := loadConfig("", fakeEnv(map[string]string{
		"COLDMSG_MAX_TOKENS":  "lots",
		"COLDMSG_TEMPERATURE": "warm",
	}))
	require.NoError(t, err)
	require.Equal(t, 200, cfg.MaxTokens)
	require.Equal(t, 0.7, cfg.Temperature)
}

func TestLoadConfig_APIKeyFallbacks(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY": "sk-openai",
		"GEMINI_API_KEY": "gm-key",
	}

	cfg, err := loadConfig("", fakeEnv(env))
	require.NoError(t, err)
	require.Equal(t, "sk-openai", cfg.APIKey)

	env["COLDMSG_BACKEND"] = "Gemini"
	cfg, err = loadConfig("", fakeEnv(env))
	require.NoError(t, err)
	require.Equal(t, backendGemini, cfg.Backend)
	require.Equal(t, "gm-key", cfg.APIKey)

	env["COLDMSG_API_KEY"] = "explicit"
	cfg, err = loadConfig("", fakeEnv(env))
	require.NoError(t, err)
	require.Equal(t, "explicit", cfg.APIKey)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"), fakeEnv(nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "unknown backend", env: map[string]string{"COLDMSG_BACKEND": "llama"}, want: "unknown backend"},
		{name: "bad timeout", env: map[string]string{"COLDMSG_TIMEOUT": "soon"}, want: "timeout"},
		{name: "negative load timeout", env: map[string]string{"COLDMSG_LOAD_TIMEOUT": "-1s"}, want: "must not be negative"},
		{name: "top_p above one", env: map[string]string{"COLDMSG_TOP_P": "1.5"}, want: "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig("", fakeEnv(tt.env))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_GenerationOptions(t *testing.T) {
	cfg := Config{Temperature: 0.2, TopP: 0.8, MaxTokens: 50}
	opts := cfg.generationOptions()
	require.Equal(t, 0.2, opts.Temperature)
	require.Equal(t, 0.8, opts.TopP)
	require.Equal(t, 50, opts.MaxTokens)
}
