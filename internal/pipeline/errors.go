package pipeline

import "errors"

var (
	ErrInvalidKafkaConfig      = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed        = errors.New("failed to fetch message from Kafka")
	ErrKafkaWriteFailed        = errors.New("failed to write message to Kafka")
	ErrUnknownAggregation      = errors.New("unknown aggregation")
	ErrConsumerCreationFailed  = errors.New("failed to create consumer")
	ErrPublisherCreationFailed = errors.New("failed to create publisher")
	ErrRunnerCreationFailed    = errors.New("failed to create runner")
	ErrConsumerRunFailed       = errors.New("consumer component failed")
	ErrRunnerRunFailed         = errors.New("runner component failed")
	ErrPublisherRunFailed      = errors.New("publisher component failed")
)
