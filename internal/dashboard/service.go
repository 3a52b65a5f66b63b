// Package dashboard serves the browser dashboard and its status API.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/tbidash/internal/charts"
	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/pipeline"
	"github.com/theirongolddev/tbidash/internal/source"
	"github.com/theirongolddev/tbidash/internal/store"
)

// Config controls the dashboard runtime behavior.
type Config struct {
	DataDir      string
	Files        source.FileSet
	UseCache     bool
	CachePath    string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Recruitment  map[string]int64
	Chart        charts.Options
	// Filter applies to requests that do not set the matching query parameter.
	Filter       pipeline.Filter
}

// Snapshot is a compact dataset state for status/event payloads.
type Snapshot struct {
	At             time.Time `json:"at"`
	AgeRows        int       `json:"age_rows"`
	YearRows       int       `json:"year_rows"`
	MilitaryRows   int       `json:"military_rows"`
	ParseErrors    int       `json:"parse_errors"`
	CivilianTotal  float64   `json:"civilian_total"`
	YearlyTotal    float64   `json:"yearly_total"`
	DiagnosedTotal float64   `json:"diagnosed_total"`
}

// Delta captures snapshot deltas between reloads.
type Delta struct {
	AgeRows        int     `json:"age_rows"`
	YearRows       int     `json:"year_rows"`
	MilitaryRows   int     `json:"military_rows"`
	ParseErrors    int     `json:"parse_errors"`
	DiagnosedTotal float64 `json:"diagnosed_total"`
}

// Event types.
const (
	EventSnapshot     = "snapshot"
	EventReloaded     = "dataset_reloaded"
	EventReloadFailed = "reload_failed"
)

// Event is emitted whenever the dataset is loaded or a reload fails.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
	Error     string    `json:"error,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	LastReloadAt    time.Time `json:"last_reload_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	ReloadCount     int64     `json:"reload_count"`
	DataDir         string    `json:"data_dir"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// LoadFunc loads the dataset and the files it came from.
type LoadFunc func(ctx context.Context) (*model.Dataset, []source.DiscoveredFile, error)

// Service provides the dashboard runtime and HTTP API.
type Service struct {
	cfg   Config
	load  LoadFunc
	pages *pageSet

	mu           sync.RWMutex
	startedAt    time.Time
	lastPollAt   time.Time
	lastReloadAt time.Time
	pollCount    int64
	reloadCount  int64
	lastError    string
	dataset      *model.Dataset
	files        []source.DiscoveredFile
	snapshot     Snapshot
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event

	// done is closed when the HTTP server shuts down so open streams return.
	done      chan struct{}
	closeDone sync.Once
}

// New returns a dashboard serving ds, which was loaded from files.
func New(cfg Config, ds *model.Dataset, files []source.DiscoveredFile) *Service {
	if cfg.Interval > 0 && cfg.Interval < time.Second {
		cfg.Interval = time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8501"
	}
	if cfg.Recruitment == nil {
		cfg.Recruitment = map[string]int64{}
	}

	now := time.Now()
	s := &Service{
		cfg:          cfg,
		pages:        mustParsePages(),
		startedAt:    now,
		lastReloadAt: now,
		dataset:      ds,
		files:        files,
		snapshot:     snapshotFromDataset(ds, now),
		subs:         make(map[int]chan Event),
		done:         make(chan struct{}),
	}
	s.load = s.loadDataset
	s.publishEvent(s.newEvent(EventSnapshot, s.snapshot, Delta{}, ""))
	return s
}

// Addr returns the configured listen address.
func (s *Service) Addr() string {
	return s.cfg.Addr
}

// Dataset returns the dataset currently being served.
func (s *Service) Dataset() *model.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Handler returns the HTTP routes of the dashboard.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIntroduction)
	mux.HandleFunc("GET /explore", s.handleExplore)
	mux.HandleFunc("GET /visualizations", s.handleVisualizations)
	mux.HandleFunc("GET /conclusions", s.handleConclusions)
	mux.HandleFunc("GET /charts/{name}", s.handleChart)
	mux.HandleFunc("GET /api/datasets/{kind}", s.handleDatasetAPI)
	mux.HandleFunc("GET /api/totals/{kind}", s.handleTotalsAPI)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	return traced(mux)
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	server.RegisterOnShutdown(s.closeStreams)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var tick <-chan time.Time
	if s.cfg.Interval > 0 {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-tick:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("dashboard http server: %w", err)
		}
	}
}

// pollOnce reloads the dataset when any data file changed since the last load.
func (s *Service) pollOnce(ctx context.Context) {
	curr, err := source.ScanDir(s.cfg.DataDir, s.cfg.Files)

	s.mu.Lock()
	s.lastPollAt = time.Now()
	s.pollCount++
	prevFiles := s.files
	s.mu.Unlock()

	if err != nil {
		s.recordFailure(err)
		return
	}
	if !source.Changed(prevFiles, curr) {
		return
	}

	s.reload(ctx)
}

// reload loads a fresh dataset and swaps it in. A failed reload keeps the
// previous dataset.
func (s *Service) reload(ctx context.Context) {
	ds, files, err := s.load(ctx)
	if err != nil {
		s.mu.Lock()
		s.files = files
		s.mu.Unlock()
		s.recordFailure(err)
		return
	}

	now := time.Now()
	snap := snapshotFromDataset(ds, now)

	s.mu.Lock()
	prev := s.snapshot
	s.dataset = ds
	s.files = files
	s.snapshot = snap
	s.lastReloadAt = now
	s.reloadCount++
	s.lastError = ""
	ev := s.newEventLocked(EventReloaded, snap, diffSnapshots(prev, snap), "")
	s.mu.Unlock()

	log.Printf("tbidash dashboard reloaded %s (%d rows)", s.cfg.DataDir, snap.AgeRows+snap.YearRows+snap.MilitaryRows)
	s.publishEvent(ev)
}

func (s *Service) recordFailure(err error) {
	s.mu.Lock()
	repeated := s.lastError == err.Error()
	s.lastError = err.Error()
	snap := s.snapshot
	var ev Event
	if !repeated {
		ev = s.newEventLocked(EventReloadFailed, snap, Delta{}, err.Error())
	}
	s.mu.Unlock()

	log.Printf("tbidash dashboard reload error: %v", err)
	if !repeated {
		s.publishEvent(ev)
	}
}

func (s *Service) loadDataset(ctx context.Context) (*model.Dataset, []source.DiscoveredFile, error) {
	if s.cfg.UseCache && s.cfg.CachePath != "" {
		cache, err := store.Open(s.cfg.CachePath)
		if err == nil {
			defer func() { _ = cache.Close() }()
			cr, loadErr := pipeline.LoadWithCache(ctx, s.cfg.DataDir, s.cfg.Files, cache, nil)
			if loadErr == nil {
				return cr.Dataset, cr.Files, nil
			}
		}
	}

	result, err := pipeline.Load(ctx, s.cfg.DataDir, s.cfg.Files, nil)
	if err != nil {
		var files []source.DiscoveredFile
		if result != nil {
			files = result.Files
		}
		return nil, files, err
	}
	return result.Dataset, result.Files, nil
}

func snapshotFromDataset(ds *model.Dataset, at time.Time) Snapshot {
	snap := Snapshot{
		At:             at,
		AgeRows:        ds.Rows(model.KindAge),
		YearRows:       ds.Rows(model.KindYear),
		MilitaryRows:   ds.Rows(model.KindMilitary),
		CivilianTotal:  pipeline.TableTotal(ds, model.KindAge),
		YearlyTotal:    pipeline.TableTotal(ds, model.KindYear),
		DiagnosedTotal: pipeline.TableTotal(ds, model.KindMilitary),
	}
	if ds != nil {
		for _, info := range ds.Tables {
			snap.ParseErrors += info.ParseErrors
		}
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		AgeRows:        curr.AgeRows - prev.AgeRows,
		YearRows:       curr.YearRows - prev.YearRows,
		MilitaryRows:   curr.MilitaryRows - prev.MilitaryRows,
		ParseErrors:    curr.ParseErrors - prev.ParseErrors,
		DiagnosedTotal: curr.DiagnosedTotal - prev.DiagnosedTotal,
	}
}

func (s *Service) newEvent(typ string, snap Snapshot, delta Delta, errMsg string) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newEventLocked(typ, snap, delta, errMsg)
}

func (s *Service) newEventLocked(typ string, snap Snapshot, delta Delta, errMsg string) Event {
	s.nextEventID++
	return Event{
		ID:        s.nextEventID,
		Type:      typ,
		Timestamp: time.Now(),
		Snapshot:  snap,
		Delta:     delta,
		Error:     errMsg,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		LastReloadAt:    s.lastReloadAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		ReloadCount:     s.reloadCount,
		DataDir:         s.cfg.DataDir,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// closeStreams ends every open /v1/stream response.
func (s *Service) closeStreams() {
	s.closeDone.Do(func() { close(s.done) })
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
