package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sanspareilsmyn/windowlens/internal/message"
)

var (
	brokers     = flag.String("brokers", "localhost:9092", "Comma-separated Kafka broker list")
	topic       = flag.String("topic", "event-stream", "Input topic to produce to")
	frameLength = flag.Duration("frame-length", 10*time.Second, "Frame length used to grid frame sequences and markers")
	keys        = flag.Int("keys", 5, "Number of distinct keys to emit")
)

// The producer plays the role of the upstream stage: it assigns each event a
// frame sequence on the grid and emits a progress marker whenever the wall
// clock crosses a frame boundary, promising no more events at or below it.
func main() {
	flag.Parse()

	writer := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:    *topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Fatalf("Error closing kafka writer: %v", err)
		}
	}()
	log.Printf("Starting sample producer for topic: %s on brokers: %s", *topic, *brokers)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		log.Println("Shutdown signal received, stopping producer...")
		cancel()
	}()

	frameMillis := frameLength.Milliseconds()
	floorFrame := func(ts int64) int64 {
		return ts - (ts % frameMillis)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	lastMarker := int64(-1)
	for {
		select {
		case <-ctx.Done():
			log.Println("Producer stopped.")
			return

		case now := <-ticker.C:
			frameSeq := floorFrame(now.UnixMilli())

			// A new frame began: everything at or below the previous frame
			// is complete, so emit a marker for it first.
			if lastMarker >= 0 && frameSeq > lastMarker {
				data, err := message.EncodeMarker(message.Marker{Seq: lastMarker})
				if err != nil {
					log.Fatalf("Error encoding marker: %v", err)
				}
				if err := writer.WriteMessages(ctx, kafka.Message{Value: data}); err != nil {
					log.Printf("Error writing marker: %v", err)
					continue
				}
				log.Printf("Emitted marker seq=%d", lastMarker)
			}
			lastMarker = frameSeq

			key := fmt.Sprintf("user-%d", rng.Intn(*keys))
			data, err := message.EncodeEvent(message.Event{
				FrameSeq: &frameSeq,
				Key:      key,
				Value:    rng.NormFloat64()*10 + 50,
			})
			if err != nil {
				log.Fatalf("Error encoding event: %v", err)
			}
			if err := writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data}); err != nil {
				log.Printf("Error writing event: %v", err)
			}
		}
	}
}
