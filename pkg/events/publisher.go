package events

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

// Event types carried on the game-events topic
const (
	TypeScoreSaved          = "score_saved"
	TypeAchievementUnlocked = "achievement_unlocked"
)

// Envelope is the wire format for a game event
type Envelope struct {
	Type          string    `json:"type"`
	PlayerName    string    `json:"player_name"`
	ScoreID       string    `json:"score_id,omitempty"`
	Height        int       `json:"height,omitempty"`
	Completed     bool      `json:"completed,omitempty"`
	AchievementID string    `json:"achievement_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PublishResult holds the result of an asynchronous publish
type PublishResult struct {
	Error error
}

// Publisher defines the interface for emitting game events.
// Publishing is best-effort: callers report failures but never let them
// fail the request that produced the event.
type Publisher interface {
	// PublishAsync emits the event keyed by player name.
	// Returns a channel that receives the result when the write completes.
	PublishAsync(ctx context.Context, event Envelope) <-chan PublishResult

	// Close gracefully shuts down the publisher
	Close() error
}

// KafkaPublisher implements Publisher using kafka-go
type KafkaPublisher struct {
	writer *kafka.Writer
}

// Config holds Kafka publisher configuration
type Config struct {
	Brokers []string
	Topic   string
}

// NewKafkaPublisher creates a new KafkaPublisher instance
func NewKafkaPublisher(cfg Config) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Async:    true, // Non-blocking
		Balancer: &kafka.LeastBytes{},
	}

	return &KafkaPublisher{writer: writer}
}

// PublishAsync emits the event keyed by player name
func (p *KafkaPublisher) PublishAsync(ctx context.Context, event Envelope) <-chan PublishResult {
	resultChan := make(chan PublishResult, 1)

	data, err := json.Marshal(event)
	if err != nil {
		resultChan <- PublishResult{Error: err}
		close(resultChan)
		return resultChan
	}

	msg := kafka.Message{
		Key:   []byte(event.PlayerName),
		Value: data,
	}

	go func() {
		err := p.writer.WriteMessages(ctx, msg)
		resultChan <- PublishResult{Error: err}
		close(resultChan)
	}()

	return resultChan
}

// Close gracefully shuts down the publisher
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured
type NoopPublisher struct{}

// PublishAsync reports immediate success without emitting anything
func (NoopPublisher) PublishAsync(ctx context.Context, event Envelope) <-chan PublishResult {
	resultChan := make(chan PublishResult, 1)
	resultChan <- PublishResult{}
	close(resultChan)
	return resultChan
}

// Close is a no-op
func (NoopPublisher) Close() error { return nil }
