package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sanspareilsmyn/windowlens/internal/config"
	"github.com/sanspareilsmyn/windowlens/internal/message"
)

// stageBuffer is the channel depth between stages: enough to ride out short
// stalls without hiding sustained backpressure.
const stageBuffer = 128

// Pipeline wires the stages together: consumer → runner → publisher. Each
// stage owns its Run loop; the pipeline owns the channels between them and
// the shutdown order, which follows the data: the consumer closing its
// output drains the runner, the runner closing its output drains the
// publisher.
type Pipeline struct {
	consumer  *Consumer
	runner    *Runner
	publisher *Publisher
	logger    *zap.Logger

	envelopes chan message.Envelope
	records   chan OutputRecord
}

// New builds the stages and the channels between them.
func New(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	envelopes := make(chan message.Envelope, stageBuffer)
	records := make(chan OutputRecord, stageBuffer)

	consumer, err := NewConsumer(cfg.Kafka, envelopes, logger.Named("consumer"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConsumerCreationFailed, err)
	}

	runner, err := NewRunner(cfg.Window, cfg.Aggregation.Name, envelopes, records, logger.Named("runner"))
	if err != nil {
		return nil, err
	}

	publisher, err := NewPublisher(cfg.Kafka, records, logger.Named("publisher"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPublisherCreationFailed, err)
	}

	return &Pipeline{
		consumer:  consumer,
		runner:    runner,
		publisher: publisher,
		logger:    logger.Named("pipeline"),
		envelopes: envelopes,
		records:   records,
	}, nil
}

// Run executes the stages until the context ends or one of them fails. The
// first failure cancels the group's context, and every stage returns as soon
// as it sees the cancellation, so records still buffered between stages are
// not delivered. A stage whose input channel closes returns once it has
// handled everything before the close. Cancellation is not an error: a
// signal-driven shutdown returns nil.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(p.envelopes)
		return stageErr(ErrConsumerRunFailed, p.consumer.Run(ctx))
	})
	g.Go(func() error {
		defer close(p.records)
		return stageErr(ErrRunnerRunFailed, p.runner.Run(ctx))
	})
	g.Go(func() error {
		return stageErr(ErrPublisherRunFailed, p.publisher.Run(ctx))
	})

	p.logger.Info("Pipeline running")

	if err := g.Wait(); err != nil {
		p.logger.Error("Pipeline stopped on stage failure", zap.Error(err))
		return err
	}
	p.logger.Info("Pipeline drained and stopped")
	return nil
}

// stageErr wraps a stage failure in its sentinel, treating cancellation as a
// clean exit.
func stageErr(sentinel error, err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
