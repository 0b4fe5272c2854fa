package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
kafka:
  brokers: ["localhost:9092"]
  inputTopic: "events"
  outputTopic: "windows"
window:
  frameLength: 5s
  windowLength: 30s
aggregation:
  name: "sum"
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "events", cfg.Kafka.InputTopic)
	assert.Equal(t, "windows", cfg.Kafka.OutputTopic)
	assert.Equal(t, 5*time.Second, cfg.Window.FrameLength)
	assert.Equal(t, 30*time.Second, cfg.Window.WindowLength)
	assert.Equal(t, "sum", cfg.Aggregation.Name)

	// Defaults kick in for everything the file omits.
	assert.Equal(t, defaultKafkaGroupID, cfg.Kafka.GroupID)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrConfigFileMissing)
}

func TestLoadWithoutFileUsesDefaultsAndFailsValidation(t *testing.T) {
	// No file and no env: defaults alone cannot name brokers or topics.
	_, err := Load("")
	assert.ErrorIs(t, err, ErrEmptyKafkaBrokers)
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			"no brokers",
			`
kafka:
  inputTopic: "events"
  outputTopic: "windows"
`,
			ErrEmptyKafkaBrokers,
		},
		{
			"no input topic",
			`
kafka:
  brokers: ["localhost:9092"]
  outputTopic: "windows"
`,
			ErrEmptyKafkaInputTopic,
		},
		{
			"no output topic",
			`
kafka:
  brokers: ["localhost:9092"]
  inputTopic: "events"
`,
			ErrEmptyKafkaOutputTopic,
		},
		{
			"window not a frame multiple",
			`
kafka:
  brokers: ["localhost:9092"]
  inputTopic: "events"
  outputTopic: "windows"
window:
  frameLength: 7s
  windowLength: 30s
`,
			ErrWindowNotFrameMultiple,
		},
		{
			"negative frame length",
			`
kafka:
  brokers: ["localhost:9092"]
  inputTopic: "events"
  outputTopic: "windows"
window:
  frameLength: -5s
  windowLength: 30s
`,
			ErrInvalidFrameLength,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
