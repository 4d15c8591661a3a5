package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_DefaultsAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir) // keeps godotenv from picking up a stray .env
	path := writeFile(t, dir, "config.yaml", `
app:
  name: healthmate
llm:
  chat:
    apiKey: from-yaml
databases:
  driver: sqlite
`)
	t.Setenv("DEEPSEEK_API_KEY", "from-env")
	t.Setenv("PORT", "8088")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.Chat.APIKey)
	assert.Equal(t, ":8088", cfg.Server.Address)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Chat.Model)
	assert.Equal(t, "https://api.deepseek.com", cfg.LLM.Chat.BaseURL)
	assert.Equal(t, "gemini-1.5-flash", cfg.LLM.Extraction.Model)
	require.NotNil(t, cfg.LLM.Temperature)
	assert.InDelta(t, 0.7, *cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, DispatchGoroutine, cfg.Memory.Dispatch)
	assert.Equal(t, DefaultMemoryTopic, cfg.Memory.Topic)
}

func TestLoadConfig_ExplicitZeroTemperature(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", "llm:\n  temperature: 0\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.LLM.Temperature)
	assert.Zero(t, *cfg.LLM.Temperature)
}

func TestLoadConfig_RejectsOutOfRangeTemperature(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", "llm:\n  temperature: 3.5\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_APIKeysFollowProvider(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", `
llm:
  chat:
    provider: gemini
    apiKey: chat-yaml
  extraction:
    provider: openai
    apiKey: extraction-yaml
`)
	t.Setenv("DEEPSEEK_API_KEY", "deepseek-env")
	t.Setenv("GEMINI_API_KEY", "gemini-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-env", cfg.LLM.Chat.APIKey)
	assert.Equal(t, "deepseek-env", cfg.LLM.Extraction.APIKey)
	assert.Empty(t, cfg.LLM.Chat.BaseURL)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", "app:\n  name: healthmate\n")
	writeFile(t, dir, ".env", "GEMINI_API_KEY=dotenv-key\n")
	t.Setenv("GEMINI_API_KEY", "")
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.LLM.Extraction.APIKey)
}

func TestLoadConfig_RejectsKafkaDispatchWithoutBrokers(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", "memory:\n  dispatch: kafka\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadPersona(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "personality.json", `{
  "name": "Dr. Mira",
  "role": "a careful health assistant",
  "tone": "warm",
  "directives": ["Never diagnose", "Suggest a doctor for emergencies"]
}`)

	p, err := LoadPersona(path)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Mira", p.Name())
	assert.Equal(t, "warm", p.Tone())

	d := p.Directives()
	require.Len(t, d, 2)
	d[0] = "mutated"
	assert.Equal(t, "Never diagnose", p.Directives()[0])
}

func TestLoadPersona_MissingName(t *testing.T) {
	path := writeFile(t, t.TempDir(), "personality.json", `{"role": "assistant"}`)
	_, err := LoadPersona(path)
	require.Error(t, err)
}
