package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/windowlens/internal/config"
	"github.com/sanspareilsmyn/windowlens/internal/message"
	"github.com/sanspareilsmyn/windowlens/internal/window"
)

// Runner owns one windowing operator instance and drives it from the parsed
// input stream: events are folded into frame state, progress markers trigger
// window emission, and the emitted frames plus the forwarded markers go to
// the output channel in order.
type Runner struct {
	def    window.Definition
	op     *window.Operator[message.Event, string, *aggState, AggregationResult]
	input  <-chan message.Envelope
	output chan<- OutputRecord
	logger *zap.Logger

	lastMarkerSeq  int64
	markerObserved bool
}

// NewRunner builds the operator from the window geometry (durations mapped
// onto a millisecond frame grid) and the named built-in aggregation.
func NewRunner(cfg config.WindowConfig, aggregation string, input <-chan message.Envelope, output chan<- OutputRecord, logger *zap.Logger) (*Runner, error) {
	def, err := window.NewDefinition(cfg.FrameLength.Milliseconds(), cfg.WindowLength.Milliseconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunnerCreationFailed, err)
	}

	ops, err := builtinOps(aggregation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunnerCreationFailed, err)
	}

	op, err := window.NewOperator(def, ops,
		func(ev message.Event) int64 { return *ev.FrameSeq },
		func(ev message.Event) string { return ev.Key },
		logger.Named("operator"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunnerCreationFailed, err)
	}

	logger.Info("Runner initialized",
		zap.Int64("frame_length_ms", def.FrameLength()),
		zap.Int64("window_length_ms", def.WindowLength()),
		zap.Bool("tumbling", def.IsTumbling()),
		zap.String("aggregation", aggregation),
		zap.Bool("incremental", ops.Incremental()),
	)

	return &Runner{
		def:    def,
		op:     op,
		input:  input,
		output: output,
		logger: logger,
	}, nil
}

// Run starts the runner's processing loop.
func (r *Runner) Run(ctx context.Context) error {
	sugar := r.logger.Sugar()
	sugar.Info("Starting runner loop...")
	defer sugar.Info("Runner loop stopped.")

	for {
		select {
		case env, ok := <-r.input:
			if !ok {
				sugar.Info("Runner input channel closed.")
				return nil
			}
			if env.IsMarker() {
				if err := r.handleMarker(ctx, *env.Marker); err != nil {
					return err
				}
			} else {
				r.handleEvent(*env.Event)
			}

		case <-ctx.Done():
			sugar.Info("Context cancelled, stopping runner.")
			return ctx.Err()
		}
	}
}

// handleEvent resolves the event's frame sequence and folds it into the
// operator's frame state.
func (r *Runner) handleEvent(ev message.Event) {
	if ev.FrameSeq == nil {
		if ev.Timestamp == nil {
			// The parser guarantees one of the two; defend anyway.
			r.logger.Warn("Dropping event with neither frame_seq nor timestamp",
				zap.String("key", ev.Key))
			return
		}
		seq := r.def.FloorFrameSeq(ev.Timestamp.UnixMilli())
		ev.FrameSeq = &seq
	}

	r.op.OnItem(ev)
	itemsAccepted.Inc()
	liveFrames.Set(float64(r.op.StoredFrames()))
}

// handleMarker drives emission for one progress marker and forwards the
// resulting frames and the marker downstream, preserving their order.
func (r *Runner) handleMarker(ctx context.Context, m message.Marker) error {
	if r.markerObserved && m.Seq < r.lastMarkerSeq {
		// Tolerated: the cursor never moves backward, so a regressed marker
		// emits no frames and is only forwarded.
		r.logger.Warn("Progress marker regressed",
			zap.Int64("seq", m.Seq),
			zap.Int64("previous_seq", r.lastMarkerSeq),
		)
	}
	r.markerObserved = true
	r.lastMarkerSeq = m.Seq

	for emission := range r.op.OnProgress(window.ProgressMarker{Seq: m.Seq}) {
		record := toOutputRecord(emission)
		select {
		case r.output <- record:
			if record.Frame != nil {
				frameRowsEmitted.Inc()
			} else {
				markersForwarded.Inc()
			}

		case <-ctx.Done():
			r.logger.Debug("Context cancelled mid-emission, abandoning output.", zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}

	liveFrames.Set(float64(r.op.StoredFrames()))
	slidingKeys.Set(float64(r.op.SlidingKeys()))
	return nil
}

func toOutputRecord(e window.Emission[string, AggregationResult]) OutputRecord {
	if e.Frame != nil {
		return OutputRecord{Frame: &FrameRecord{
			FrameSeq: e.Frame.FrameSeq,
			Key:      e.Frame.Key,
			Result:   e.Frame.Result,
		}}
	}
	return OutputRecord{Marker: &message.Marker{Seq: e.Marker.Seq}}
}
