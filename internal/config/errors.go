package config

import "errors"

var (
	ErrReadingConfigFile      = errors.New("failed to read config file")
	ErrUnmarshallingConfig    = errors.New("failed to unmarshal config")
	ErrEmptyKafkaBrokers      = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaInputTopic   = errors.New("kafka inputTopic cannot be empty")
	ErrEmptyKafkaOutputTopic  = errors.New("kafka outputTopic cannot be empty")
	ErrEmptyKafkaGroupID      = errors.New("kafka groupID cannot be empty")
	ErrInvalidFrameLength     = errors.New("window frameLength must be positive")
	ErrInvalidWindowLength    = errors.New("window windowLength must be positive")
	ErrWindowNotFrameMultiple = errors.New("window windowLength must be a multiple of frameLength")
	ErrEmptyAggregationName   = errors.New("aggregation name cannot be empty")
	ErrConfigFileMissing      = errors.New("config file not found")
)
