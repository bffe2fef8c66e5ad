package stream

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bagking/pkg/store"
)

// ScoreEvent is a change-stream event over the score collection, decoded
// into the typed record the exporter writes downstream
type ScoreEvent struct {
	OperationType string
	Score         store.ScoreRecord
	ResumeToken   bson.Raw
}

// Watcher defines the interface for tailing new score records
type Watcher interface {
	// Watch starts tailing the score collection from the given resume token.
	// Returns a channel of score events and an error channel.
	Watch(ctx context.Context, resumeToken bson.Raw) (<-chan ScoreEvent, <-chan error)

	// Close gracefully shuts down the watcher
	Close() error
}

// MongoWatcher implements the Watcher interface over a MongoDB change stream
type MongoWatcher struct {
	collection *mongo.Collection
	stream     *mongo.ChangeStream
}

// NewMongoWatcher creates a new MongoWatcher instance
func NewMongoWatcher(coll *mongo.Collection) *MongoWatcher {
	return &MongoWatcher{collection: coll}
}

// Watch starts tailing the score collection
func (w *MongoWatcher) Watch(ctx context.Context, resumeToken bson.Raw) (<-chan ScoreEvent, <-chan error) {
	eventChan := make(chan ScoreEvent)
	errChan := make(chan error, 1)

	go func() {
		defer close(eventChan)
		defer close(errChan)

		// Scores are immutable, so inserts are the only operation worth
		// shipping downstream
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.D{
				{Key: "operationType", Value: "insert"},
			}}},
		}

		opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
		if resumeToken != nil {
			opts.SetResumeAfter(resumeToken)
		}

		stream, err := w.collection.Watch(ctx, pipeline, opts)
		if err != nil {
			errChan <- fmt.Errorf("failed to open change stream: %w", err)
			return
		}
		w.stream = stream
		defer stream.Close(ctx)

		for stream.Next(ctx) {
			var rawEvent bson.Raw
			if err := stream.Decode(&rawEvent); err != nil {
				errChan <- fmt.Errorf("failed to decode change event: %w", err)
				continue
			}

			event, err := parseEvent(rawEvent)
			if err != nil {
				errChan <- fmt.Errorf("failed to parse change event: %w", err)
				continue
			}

			// Attach the actual resume token from the stream
			event.ResumeToken = stream.ResumeToken()

			select {
			case eventChan <- event:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil {
			errChan <- fmt.Errorf("change stream error: %w", err)
		}
	}()

	return eventChan, errChan
}

func parseEvent(raw bson.Raw) (ScoreEvent, error) {
	var event struct {
		OperationType string            `bson:"operationType"`
		FullDocument  store.ScoreRecord `bson:"fullDocument"`
	}

	if err := bson.Unmarshal(raw, &event); err != nil {
		return ScoreEvent{}, err
	}
	if event.OperationType == "" {
		return ScoreEvent{}, fmt.Errorf("missing operation type")
	}
	if event.FullDocument.ID == "" {
		return ScoreEvent{}, fmt.Errorf("missing score document")
	}

	return ScoreEvent{
		OperationType: event.OperationType,
		Score:         event.FullDocument,
	}, nil
}

// Close gracefully shuts down the watcher
func (w *MongoWatcher) Close() error {
	if w.stream != nil {
		return w.stream.Close(context.Background())
	}
	return nil
}
