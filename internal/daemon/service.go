// Package daemon provides the long-running costlens API service: routing,
// usage tracking, and savings endpoints plus a platform spend monitor.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Jrmromao/costlens/internal/analyzer"
	"github.com/Jrmromao/costlens/internal/model"
	"github.com/Jrmromao/costlens/internal/routing"
	"github.com/Jrmromao/costlens/internal/savings"
	"github.com/Jrmromao/costlens/internal/tracking"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	Days         int
	Interval     time.Duration
	EventsBuffer int
	DefaultPlan  model.PlanType
}

// Snapshot is a compact platform spend state for status/event payloads.
type Snapshot struct {
	At           time.Time `json:"at"`
	TotalCostUSD float64   `json:"total_cost_usd"`
	TotalTokens  int64     `json:"total_tokens"`
	APICalls     int       `json:"api_calls"`
	Users        int       `json:"users"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	TotalCostUSD float64 `json:"total_cost_usd"`
	TotalTokens  int64   `json:"total_tokens"`
	APICalls     int     `json:"api_calls"`
	Users        int     `json:"users"`
}

func (d Delta) isZero() bool {
	return d.TotalCostUSD == 0 &&
		d.TotalTokens == 0 &&
		d.APICalls == 0 &&
		d.Users == 0
}

// Event is emitted whenever the platform spend snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Days            int       `json:"days"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	router  *routing.Router
	tracker *tracking.Tracker
	calc    *savings.Calculator

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service over the given routing and cost services.
func New(cfg Config, router *routing.Router, tracker *tracking.Tracker, calc *savings.Calculator) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8799"
	}
	if cfg.Days <= 0 {
		cfg.Days = 30
	}
	if cfg.DefaultPlan == "" {
		cfg.DefaultPlan = model.PlanFree
	}

	return &Service{
		cfg:       cfg,
		router:    router,
		tracker:   tracker,
		calc:      calc,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the daemon's HTTP handler.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.HandleFunc("/v1/route", s.handleRoute)
	mux.HandleFunc("/v1/feedback", s.handleFeedback)
	mux.HandleFunc("/v1/usage", s.handleUsage)
	mux.HandleFunc("/v1/costs", s.handleCosts)
	mux.HandleFunc("/v1/afford", s.handleAfford)
	mux.HandleFunc("/v1/savings", s.handleSavings)
	return mux
}

// Run starts HTTP endpoints and platform-cost polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	now := time.Now()
	since := now.AddDate(0, 0, -s.cfg.Days)

	costs, err := s.tracker.PlatformCosts(ctx, since, now)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		log.Printf("costlens daemon poll error: %v", err)
		return
	}

	snap := Snapshot{
		At:           now,
		TotalCostUSD: costs.TotalCostUSD,
		TotalTokens:  costs.TotalTokens,
		APICalls:     costs.APICallCount,
		Users:        costs.UserCount,
	}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
			Delta:     Delta{},
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      "spend_delta",
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		TotalCostUSD: curr.TotalCostUSD - prev.TotalCostUSD,
		TotalTokens:  curr.TotalTokens - prev.TotalTokens,
		APICalls:     curr.APICalls - prev.APICalls,
		Users:        curr.Users - prev.Users,
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
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Days:            s.cfg.Days,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

type routeRequest struct {
	RequestedModel string             `json:"requested_model"`
	Messages       []analyzer.Message `json:"messages"`
	UserID         string             `json:"user_id,omitempty"`
}

type routeResponse struct {
	SelectedModel   string  `json:"selected_model"`
	OriginalModel   string  `json:"original_model"`
	Switched        bool    `json:"switched"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
	ExpectedSavings float64 `json:"expected_savings"`
	QualityRisk     string  `json:"quality_risk"`
	BudgetCapped    bool    `json:"budget_capped,omitempty"`
	CapReason       string  `json:"cap_reason,omitempty"`
}

func (s *Service) handleRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.RequestedModel == "" {
		writeError(w, http.StatusBadRequest, "requested_model is required")
		return
	}

	d := s.router.Route(r.Context(), req.RequestedModel, req.Messages, req.UserID)

	// Budget caps apply on top of quality-based routing, same as the CLI.
	capd, err := s.tracker.EnforceHardCap(r.Context(), req.UserID, s.cfg.DefaultPlan, d.SelectedModel)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, routeResponse{
		SelectedModel:   capd.Model,
		OriginalModel:   d.OriginalModel,
		Switched:        capd.Model != d.OriginalModel,
		Confidence:      d.Confidence,
		Reasoning:       d.Reasoning,
		ExpectedSavings: d.ExpectedSavings,
		QualityRisk:     string(d.QualityRisk),
		BudgetCapped:    capd.Switched,
		CapReason:       capd.Reason,
	})
}

type feedbackRequest struct {
	UserID        string `json:"user_id"`
	OriginalModel string `json:"original_model"`
	SelectedModel string `json:"selected_model"`
	QualityRating int    `json:"quality_rating"`
	WasHelpful    bool   `json:"was_helpful"`
}

func (s *Service) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	// Best-effort by contract: persistence errors never surface here.
	s.router.RecordFeedback(r.Context(), req.UserID, req.OriginalModel, req.SelectedModel, req.QualityRating, req.WasHelpful)
	w.WriteHeader(http.StatusNoContent)
}

type usageRequest struct {
	UserID       string `json:"user_id"`
	PromptID     string `json:"prompt_id,omitempty"`
	Model        string `json:"model"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	CacheHit     bool   `json:"cache_hit,omitempty"`
}

func (s *Service) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req usageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	cost, err := s.tracker.Track(r.Context(), model.UsageRecord{
		UserID:       req.UserID,
		PromptID:     req.PromptID,
		Model:        req.Model,
		InputTokens:  req.InputTokens,
		OutputTokens: req.OutputTokens,
		CacheHit:     req.CacheHit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"cost_usd": cost})
}

func (s *Service) planFromQuery(r *http.Request) model.PlanType {
	if p := r.URL.Query().Get("plan"); p != "" {
		return model.ParsePlan(p)
	}
	return s.cfg.DefaultPlan
}

func (s *Service) handleCosts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user is required")
		return
	}

	summary, err := s.tracker.UserMonthlyCost(r.Context(), userID, s.planFromQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Service) handleAfford(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user")
	modelName := q.Get("model")
	if userID == "" || modelName == "" {
		writeError(w, http.StatusBadRequest, "user and model are required")
		return
	}
	in, _ := strconv.ParseInt(q.Get("input_tokens"), 10, 64)
	out, _ := strconv.ParseInt(q.Get("output_tokens"), 10, 64)

	a, err := s.tracker.CanAfford(r.Context(), userID, modelName, in, out, s.planFromQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if !a.Allowed {
		status = http.StatusPaymentRequired
	}
	writeJSON(w, status, a)
}

func (s *Service) handleSavings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user is required")
		return
	}

	days, _ := strconv.Atoi(q.Get("days"))
	if days <= 0 {
		days = s.cfg.Days
	}
	now := time.Now().UTC()

	summary, err := s.calc.Range(r.Context(), userID, now.AddDate(0, 0, -days), now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
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
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
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
