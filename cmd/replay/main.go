// Command replay publishes a sequence of full-collection snapshots to the
// incident feed topic, simulating the document store's change-feed publisher
// for local development and demos.
//
// The fixture is a JSON array of raw incident documents in arrival order
// (oldest first). Replay grows the collection one document per tick and
// publishes the accumulated set newest-first, the ordering the console
// expects from the real feed.
//
// Usage:
//
//	go run ./cmd/replay \
//	  -fixture data/fixtures/incidents.json \
//	  -brokers localhost:9092 \
//	  -topic incident-snapshots \
//	  -interval 2s
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/safeguard-ops/dispatch-console/internal/adapter/feed"
	"github.com/safeguard-ops/dispatch-console/internal/domain"
	"github.com/safeguard-ops/dispatch-console/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	fixture := flag.String("fixture", "", "path to JSON array of raw incident documents, oldest first")
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka broker list")
	topic := flag.String("topic", "incident-snapshots", "feed topic to publish to")
	interval := flag.Duration("interval", 2*time.Second, "delay between snapshot publications")
	flag.Parse()

	if *fixture == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -fixture")
	}

	records, err := loadFixture(*fixture)
	if err != nil {
		return fmt.Errorf("loading fixture: %w", err)
	}
	log.Printf("loaded %d raw documents from %s", len(records), *fixture)

	logger := observability.NewLogger("info", "text")
	writer := feed.NewWriter(strings.Split(*brokers, ","), *topic, logger)
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for i := 1; i <= len(records); i++ {
		if err := writer.PublishSnapshot(ctx, snapshotAt(records, i)); err != nil {
			return fmt.Errorf("publishing snapshot %d: %w", i, err)
		}
		log.Printf("published snapshot %d/%d (%d documents)", i, len(records), i)

		if i == len(records) {
			break
		}
		select {
		case <-ctx.Done():
			log.Printf("interrupted after %d snapshots", i)
			return nil
		case <-time.After(*interval):
		}
	}

	log.Printf("replay complete")
	return nil
}

// loadFixture reads the raw document array and assigns ids to documents that
// lack one so the console has stable keys to diff against.
func loadFixture(path string) ([]domain.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	for _, rec := range records {
		if id, ok := rec["id"].(string); !ok || id == "" {
			rec["id"] = uuid.NewString()
		}
	}
	return records, nil
}

// snapshotAt returns the first n documents reversed, newest first.
func snapshotAt(records []domain.RawRecord, n int) []domain.RawRecord {
	snap := make([]domain.RawRecord, 0, n)
	for i := n - 1; i >= 0; i-- {
		snap = append(snap, records[i])
	}
	return snap
}
