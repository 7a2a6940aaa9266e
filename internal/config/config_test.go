package config

import (
	"bytes"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput перехватывает вывод log.Fatal
func captureOutput(f func()) (string, bool) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	oldFlags := log.Flags()
	log.SetFlags(0)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(oldFlags)
	}()

	panicked := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
			}
		}()
		f()
	}()

	return buf.String(), panicked
}

func TestMustLoad_ValidConfig(t *testing.T) {
	// Создаем временный конфиг файл
	configContent := `
env: test
api:
  base_url: "https://api.example.com/v1"
  timeout: 15s
storage:
  path: "/tmp/portal-session.json"
limits:
  requests_per_second: 2
  burst: 4
`

	tmpFile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer func() {
		err = os.Remove(tmpFile.Name())
		require.NoError(t, err)
	}()

	_, err = tmpFile.WriteString(configContent)
	require.NoError(t, err)
	err = tmpFile.Close()
	require.NoError(t, err)

	// Устанавливаем переменную окружения
	originalPath := os.Getenv("CONFIG_PATH")
	defer func() {
		err = os.Setenv("CONFIG_PATH", originalPath)
		require.NoError(t, err)
	}()

	err = os.Setenv("CONFIG_PATH", tmpFile.Name())
	require.NoError(t, err)

	// Не должно быть ошибок
	output, panicked := captureOutput(func() {
		cfg := MustLoad()

		assert.Equal(t, "test", cfg.Env)
		assert.Equal(t, "https://api.example.com/v1", cfg.BaseURL)
		assert.Equal(t, 15*time.Second, cfg.Timeout)
		assert.Equal(t, "/tmp/portal-session.json", cfg.Path)
		assert.Equal(t, 2.0, cfg.RequestsPerSecond)
		assert.Equal(t, 4, cfg.Burst)
	})

	assert.Empty(t, output)
	assert.False(t, panicked)
}

func TestConfig_DefaultValues(t *testing.T) {
	// Создаем минимальный конфиг
	configContent := `
api:
  base_url: "https://api.example.com/v1"
storage:
  path: "/tmp/portal-session.json"
`

	tmpFile, err := os.CreateTemp("", "minimal_config_*.yaml")
	require.NoError(t, err)
	defer func() {
		err = os.Remove(tmpFile.Name())
		require.NoError(t, err)
	}()

	_, err = tmpFile.WriteString(configContent)
	require.NoError(t, err)
	err = tmpFile.Close()
	require.NoError(t, err)

	// Устанавливаем переменную окружения
	originalPath := os.Getenv("CONFIG_PATH")
	defer func() {
		err = os.Setenv("CONFIG_PATH", originalPath)
		require.NoError(t, err)
	}()

	err = os.Setenv("CONFIG_PATH", tmpFile.Name())
	require.NoError(t, err)

	output, panicked := captureOutput(func() {
		cfg := MustLoad()

		// Проверяем что обязательные поля установлены
		assert.Equal(t, "https://api.example.com/v1", cfg.BaseURL)
		assert.Equal(t, "/tmp/portal-session.json", cfg.Path)

		// Проверяем значения по умолчанию для необязательных полей
		assert.Equal(t, "local", cfg.Env)
		assert.Equal(t, 10*time.Second, cfg.Timeout)
		assert.Equal(t, 5.0, cfg.RequestsPerSecond)
		assert.Equal(t, 10, cfg.Burst)
	})

	assert.Empty(t, output)
	assert.False(t, panicked)
}
