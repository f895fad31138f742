package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avelasco/docqa/internal/domain/index"
	"github.com/avelasco/docqa/internal/infra/eventbus"
	"github.com/avelasco/docqa/internal/ingest"
)

// Reindexer runs one full indexing pass over a documentation tree.
type Reindexer interface {
	Run(ctx context.Context, root string) (int, error)
}

// IndexHandler exposes index status and triggers reindex runs. It tracks
// the last completed run by consuming ingest events off the bus, so status
// stays correct no matter which code path ran the ingest.
type IndexHandler struct {
	store    index.Store
	ingestor Reindexer
	docsRoot string
	log      *slog.Logger

	running atomic.Bool
	mu      sync.Mutex
	last    *ingest.DoneEvent
}

// NewIndexHandler creates an IndexHandler and starts consuming completion
// events from bus. logger may be nil.
func NewIndexHandler(store index.Store, ingestor Reindexer, docsRoot string, bus eventbus.EventBus, logger *slog.Logger) *IndexHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &IndexHandler{store: store, ingestor: ingestor, docsRoot: docsRoot, log: logger}
	if bus != nil {
		go h.consume(bus.Subscribe(ingest.TopicDone))
	}
	return h
}

func (h *IndexHandler) consume(events <-chan eventbus.Event) {
	for evt := range events {
		done, ok := evt.Payload.(ingest.DoneEvent)
		if !ok {
			continue
		}
		h.mu.Lock()
		h.last = &done
		h.mu.Unlock()
	}
}

// lastRun is the last completed ingest in the Status response.
type lastRun struct {
	Passages int       `json:"passages"`
	TookMS   int64     `json:"took_ms"`
	At       time.Time `json:"at"`
}

// statusResponse is the JSON body for GET /api/v1/index/status.
type statusResponse struct {
	Passages int      `json:"passages"`
	Running  bool     `json:"running"`
	LastRun  *lastRun `json:"last_run,omitempty"`
}

// Status handles GET /api/v1/index/status.
func (h *IndexHandler) Status(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "index unavailable")
		return
	}

	resp := statusResponse{Passages: count, Running: h.running.Load()}
	h.mu.Lock()
	if h.last != nil {
		resp.LastRun = &lastRun{
			Passages: h.last.Passages,
			TookMS:   h.last.Took.Milliseconds(),
			At:       h.last.At,
		}
	}
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// Reindex handles POST /api/v1/index/reindex. The run happens in the
// background; a second request while one is in flight gets 409.
func (h *IndexHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if !h.running.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "reindex already running")
		return
	}

	go func() {
		defer h.running.Store(false)
		n, err := h.ingestor.Run(context.Background(), h.docsRoot)
		if err != nil {
			h.log.Error("reindex failed", slog.Any("error", err))
			return
		}
		h.log.Info("reindex complete", slog.Int("passages", n))
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "indexing"})
}
