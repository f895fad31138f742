package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avelasco/docqa/internal/domain/index"
	"github.com/avelasco/docqa/internal/infra/eventbus"
	"github.com/avelasco/docqa/internal/infra/llm"
)

// embedBatchSize bounds how many chunks are embedded per provider call.
const embedBatchSize = 16

// Topics published on the event bus during a run.
const (
	TopicBatch = "index.batch"
	TopicDone  = "index.done"
)

// BatchEvent is the TopicBatch payload, one per upserted batch.
type BatchEvent struct {
	From  int
	Count int
}

// DoneEvent is the TopicDone payload, published once per completed run.
type DoneEvent struct {
	Passages int
	Took     time.Duration
	At       time.Time
}

// Ingestor walks a documentation tree and writes the passage index.
type Ingestor struct {
	store    index.Store
	provider llm.Provider
	splitter Splitter
	bus      eventbus.EventBus
	log      *slog.Logger
}

// NewIngestor wires an Ingestor. bus and logger may be nil, which disables
// progress events and logs respectively.
func NewIngestor(store index.Store, provider llm.Provider, splitter Splitter, bus eventbus.EventBus, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ingestor{store: store, provider: provider, splitter: splitter, bus: bus, log: logger}
}

// supported reports whether the file extension is indexable.
func supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt":
		return true
	default:
		return false
	}
}

// Run indexes every supported file under root and returns the number of
// passages written. Files that fail to read are skipped with a log line;
// embedding or store failures abort the run.
func (in *Ingestor) Run(ctx context.Context, root string) (int, error) {
	began := time.Now()
	var passages []index.Passage

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supported(path) {
			return nil
		}

		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			in.log.Warn("skipping unreadable file", slog.String("path", path), slog.Any("error", readErr))
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		for i, chunk := range in.splitter.Split(string(raw)) {
			passages = append(passages, index.Passage{
				Text:   chunk,
				Source: filepath.ToSlash(rel),
				Offset: i,
			})
		}
		return nil
	})
	if walkErr != nil {
		return 0, fmt.Errorf("ingest: walk %q: %w", root, walkErr)
	}
	if len(passages) == 0 {
		return 0, nil
	}

	for start := 0; start < len(passages); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(passages) {
			end = len(passages)
		}
		batch := passages[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Text
		}
		resp, err := in.provider.Embed(ctx, llm.EmbedRequest{Texts: texts})
		if err != nil {
			return 0, fmt.Errorf("ingest: embed batch at %d: %w", start, err)
		}
		if len(resp.Embeddings) != len(batch) {
			return 0, fmt.Errorf("ingest: got %d vectors for %d chunks", len(resp.Embeddings), len(batch))
		}
		if err := in.store.Upsert(ctx, batch, resp.Embeddings); err != nil {
			return 0, fmt.Errorf("ingest: upsert batch at %d: %w", start, err)
		}
		in.log.Info("indexed batch",
			slog.Int("from", start),
			slog.Int("count", len(batch)))
		in.publish(TopicBatch, BatchEvent{From: start, Count: len(batch)})
	}

	in.publish(TopicDone, DoneEvent{
		Passages: len(passages),
		Took:     time.Since(began),
		At:       time.Now(),
	})
	return len(passages), nil
}

func (in *Ingestor) publish(topic string, payload any) {
	if in.bus != nil {
		in.bus.Publish(topic, payload)
	}
}
