package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bagking/pkg/store"
)

var playerNames = []string{
	"Ana", "Bruno", "Carla", "Diego", "Elisa",
	"Felipe", "Gabi", "Hugo", "Iara", "João",
}

func randomScore() store.ScoreRecord {
	rec := store.ScoreRecord{
		ID:         uuid.NewString(),
		PlayerName: playerNames[rand.Intn(len(playerNames))],
		Height:     rand.Intn(320),
		CreatedAt:  time.Now().UTC(),
	}

	// Roughly one run in five reaches the top
	if rec.Height >= 300 && rand.Intn(2) == 0 {
		rec.Completed = true
		ct := 180 + rand.Intn(600)
		rec.CompletionTime = &ct
	}
	return rec
}

func main() {
	addr := flag.String("addr", ":8082", "HTTP server address")
	uri := flag.String("uri", "mongodb://localhost:27017", "MongoDB URI")
	dbName := flag.String("db", "plastic_bag_king", "Database name")
	count := flag.Int("count", 1, "Records inserted per request")
	flag.Parse()

	// Connect to MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*uri))
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer client.Disconnect(context.Background())

	coll := client.Database(*dbName).Collection("scores")

	// HTTP Handlers
	http.HandleFunc("/insert", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		records := make([]store.ScoreRecord, *count)
		for i := range records {
			records[i] = randomScore()
			if _, err := coll.InsertOne(ctx, records[i]); err != nil {
				http.Error(w, fmt.Sprintf("failed to insert: %v", err), http.StatusInternalServerError)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{Addr: *addr}

	go func() {
		fmt.Printf("Seeder server starting on %s (MongoDB: %s)\n", *addr, *uri)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	// Signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	fmt.Println("\nShutting down seeder server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	server.Shutdown(shutdownCtx)
}
