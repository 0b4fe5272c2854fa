package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultKafkaGroupID = "windowlens-default-group"
	defaultFrameLength  = 10 * time.Second
	defaultWindowLength = 1 * time.Minute
	defaultAggregation  = "meanvar"

	// Environment variable prefix
	envPrefix = "WINDOWLENS"
)

// defaults is layered underneath whatever the file and environment provide.
var defaults = map[string]any{
	"kafka.groupID":          defaultKafkaGroupID,
	"window.frameLength":     defaultFrameLength,
	"window.windowLength":    defaultWindowLength,
	"aggregation.name":       defaultAggregation,
	"log.level":              "info",
	"log.format":             "console",
	"log.fileLoggingEnabled": false,
	"log.directory":          "log",
	"log.filename":           "app.log",
	"log.maxSize":            100, // megabytes
	"log.maxBackups":         3,
	"log.maxAge":             7, // days
	"log.compress":           false,
}

type Config struct {
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Window      WindowConfig      `mapstructure:"window"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Log         LogConfig         `mapstructure:"log"`
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	InputTopic  string   `mapstructure:"inputTopic"`
	OutputTopic string   `mapstructure:"outputTopic"`
	GroupID     string   `mapstructure:"groupID"`
}

// WindowConfig describes the frame grid and the window span. Both lengths
// are durations; the window length must be a whole multiple of the frame
// length, equal lengths meaning tumbling windows.
type WindowConfig struct {
	FrameLength  time.Duration `mapstructure:"frameLength"`
	WindowLength time.Duration `mapstructure:"windowLength"`
}

type AggregationConfig struct {
	Name string `mapstructure:"name"` // e.g. "count", "sum", "meanvar", "max"
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Load assembles the configuration: defaults underneath, the file at path
// (when given) on top of those, WINDOWLENS_* environment variables on top of
// everything, then validation. An empty path is allowed — a fully
// env-driven deployment needs no file.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrConfigFileMissing, path)
			}
			return nil, fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Kafka.Brokers) == 0 {
		return ErrEmptyKafkaBrokers
	}
	if c.Kafka.InputTopic == "" {
		return ErrEmptyKafkaInputTopic
	}
	if c.Kafka.OutputTopic == "" {
		return ErrEmptyKafkaOutputTopic
	}
	if c.Kafka.GroupID == "" {
		return ErrEmptyKafkaGroupID
	}
	if c.Window.FrameLength <= 0 {
		return ErrInvalidFrameLength
	}
	if c.Window.WindowLength <= 0 {
		return ErrInvalidWindowLength
	}
	if c.Window.WindowLength%c.Window.FrameLength != 0 {
		return ErrWindowNotFrameMultiple
	}
	if c.Aggregation.Name == "" {
		return ErrEmptyAggregationName
	}
	return nil
}
