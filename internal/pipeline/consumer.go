package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/windowlens/internal/config"
	"github.com/sanspareilsmyn/windowlens/internal/message"
)

// kafkaLogger adapts kafka-go's Printf-style logging onto zap. Routine
// client chatter lands on Debug; the error variant lands on Error.
type kafkaLogger struct {
	sugar *zap.SugaredLogger
	isErr bool
}

func (l kafkaLogger) Printf(format string, args ...interface{}) {
	if l.isErr {
		l.sugar.Errorf(format, args...)
	} else {
		l.sugar.Debugf(format, args...)
	}
}

// Consumer reads the interleaved item/marker stream from the input topic and
// decodes every record into an envelope before handing it on. Decoding
// happens here, in arrival order, because the per-partition order is the
// only thing keeping items ahead of the markers that bound them; a separate
// decode stage would just add a hop on the same serial path. One consumer
// feeds one operator instance.
type Consumer struct {
	reader *kafka.Reader
	output chan<- message.Envelope
	logger *zap.Logger
}

// NewConsumer validates the Kafka settings and opens a reader on the input
// topic.
func NewConsumer(cfg config.KafkaConfig, output chan<- message.Envelope, logger *zap.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 || cfg.InputTopic == "" || cfg.GroupID == "" {
		return nil, fmt.Errorf("%w: brokers=%v inputTopic=%q groupID=%q",
			ErrInvalidKafkaConfig, cfg.Brokers, cfg.InputTopic, cfg.GroupID)
	}

	kafkaSugar := logger.Named("kafka").Sugar()
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.InputTopic,
		Logger:      kafkaLogger{sugar: kafkaSugar},
		ErrorLogger: kafkaLogger{sugar: kafkaSugar, isErr: true},
	})

	logger.Info("Consuming input stream",
		zap.String("topic", cfg.InputTopic),
		zap.String("group_id", cfg.GroupID),
		zap.Strings("brokers", cfg.Brokers),
	)

	return &Consumer{reader: reader, output: output, logger: logger}, nil
}

// Run reads, decodes, and forwards records until the context ends or the
// reader fails. A record that does not parse is counted and skipped: losing
// one record is preferable to stalling the whole partition behind it.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("Kafka reader did not close cleanly", zap.Error(err))
		}
	}()

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Debug("Consumer stopping", zap.Error(err))
				return context.Canceled
			}
			return fmt.Errorf("%w: %w", ErrKafkaFetchFailed, err)
		}

		env, err := message.ParseEnvelope(m.Value)
		if err != nil {
			parseFailures.Inc()
			c.logger.Warn("Skipping undecodable record",
				zap.Error(err),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
			)
			continue
		}
		if env.IsMarker() {
			c.logger.Debug("Progress marker received", zap.Int64("seq", env.Marker.Seq))
		}

		select {
		case c.output <- env:
		case <-ctx.Done():
			c.logger.Debug("Consumer stopping mid-send", zap.Error(ctx.Err()))
			return context.Canceled
		}
	}
}
