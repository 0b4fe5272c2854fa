package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/windowlens/internal/config"
	"github.com/sanspareilsmyn/windowlens/internal/message"
)

// wireFrame is the JSON form of an emitted window result row.
type wireFrame struct {
	Type     string            `json:"type"`
	FrameSeq int64             `json:"frame_seq"`
	Key      string            `json:"key"`
	Result   AggregationResult `json:"result"`
}

// Publisher writes emitted frames and forwarded markers to the output topic,
// one record at a time so the marker-after-frames ordering survives.
type Publisher struct {
	writer *kafka.Writer
	input  <-chan OutputRecord
	logger *zap.Logger
}

// NewPublisher creates and configures a new Kafka publisher instance.
func NewPublisher(cfg config.KafkaConfig, input <-chan OutputRecord, logger *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 || cfg.OutputTopic == "" {
		return nil, fmt.Errorf("%w: brokers=%v outputTopic=%q",
			ErrInvalidKafkaConfig, cfg.Brokers, cfg.OutputTopic)
	}

	kafkaSugar := logger.Named("kafka").Sugar()
	w := &kafka.Writer{
		Addr:        kafka.TCP(cfg.Brokers...),
		Topic:       cfg.OutputTopic,
		Balancer:    &kafka.LeastBytes{},
		Logger:      kafkaLogger{sugar: kafkaSugar},
		ErrorLogger: kafkaLogger{sugar: kafkaSugar, isErr: true},
	}

	logger.Info("Publishing window results",
		zap.String("topic", cfg.OutputTopic),
		zap.Strings("brokers", cfg.Brokers),
	)

	return &Publisher{
		writer: w,
		input:  input,
		logger: logger,
	}, nil
}

// Run writes records until the input channel closes or the context ends.
func (p *Publisher) Run(ctx context.Context) error {
	defer func() {
		if err := p.writer.Close(); err != nil {
			p.logger.Warn("Kafka writer did not close cleanly", zap.Error(err))
		}
	}()

	for {
		select {
		case record, ok := <-p.input:
			if !ok {
				p.logger.Debug("Publisher input drained")
				return nil
			}
			if err := p.publish(ctx, record); err != nil {
				return err
			}

		case <-ctx.Done():
			p.logger.Debug("Publisher stopping", zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}
}

func (p *Publisher) publish(ctx context.Context, record OutputRecord) error {
	msg, err := encodeRecord(record)
	if err != nil {
		// Encoding our own result types can only fail on a programming
		// error; treat it as fatal rather than dropping output silently.
		p.logger.Error("Failed to encode output record", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrKafkaWriteFailed, err)
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Error writing message to Kafka", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrKafkaWriteFailed, err)
	}
	return nil
}

// encodeRecord renders one output record in its JSON wire form. Frames carry
// their grouping key as the record key; markers carry no key. The writer's
// LeastBytes balancer picks partitions by load, not by record key.
func encodeRecord(record OutputRecord) (kafka.Message, error) {
	if record.Frame != nil {
		data, err := json.Marshal(wireFrame{
			Type:     "frame",
			FrameSeq: record.Frame.FrameSeq,
			Key:      record.Frame.Key,
			Result:   record.Frame.Result,
		})
		if err != nil {
			return kafka.Message{}, err
		}
		return kafka.Message{Key: []byte(record.Frame.Key), Value: data}, nil
	}

	data, err := message.EncodeMarker(*record.Marker)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Value: data}, nil
}
