package daemon

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Jrmromao/costlens/internal/catalog"
	"github.com/Jrmromao/costlens/internal/config"
	"github.com/Jrmromao/costlens/internal/model"
	"github.com/Jrmromao/costlens/internal/routing"
	"github.com/Jrmromao/costlens/internal/savings"
	"github.com/Jrmromao/costlens/internal/store"
	"github.com/Jrmromao/costlens/internal/tracking"
)

func newTestService(t *testing.T) (*Service, *store.Ledger) {
	t.Helper()
	ledger, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = ledger.Close() })

	cat := catalog.Default()
	tracker := tracking.NewTracker(ledger, cat, config.DefaultPlanLimits())
	router := routing.NewRouter(cat, ledger, ledger)
	calc := savings.NewCalculator(ledger, cat)

	return New(Config{Interval: 10 * time.Second}, router, tracker, calc), ledger
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		TotalCostUSD: 10.5,
		TotalTokens:  1_000_000,
		APICalls:     120,
		Users:        3,
	}
	curr := Snapshot{
		TotalCostUSD: 13.1,
		TotalTokens:  1_250_000,
		APICalls:     136,
		Users:        4,
	}

	delta := diffSnapshots(prev, curr)
	if math.Abs(delta.TotalCostUSD-2.6) > 1e-9 {
		t.Fatalf("cost delta = %.2f, want 2.60", delta.TotalCostUSD)
	}
	if delta.TotalTokens != 250_000 {
		t.Fatalf("token delta = %d, want 250000", delta.TotalTokens)
	}
	if delta.APICalls != 16 || delta.Users != 1 {
		t.Fatalf("delta = %+v", delta)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s, _ := newTestService(t)
	s.cfg.EventsBuffer = 2

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestHandleRoute(t *testing.T) {
	s, _ := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	body := `{"requested_model":"gpt-4-turbo","messages":[{"role":"user","content":"What is the capital of France?"}],"user_id":"u1"}`
	resp, err := http.Post(srv.URL+"/v1/route", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/route: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var d routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.SelectedModel == "" || d.OriginalModel != "gpt-4-turbo" {
		t.Fatalf("decision = %+v", d)
	}
	if !d.Switched || d.ExpectedSavings <= 0 {
		t.Fatalf("simple prompt should switch with savings: %+v", d)
	}
}

func TestHandleRouteCapsOverBudgetUser(t *testing.T) {
	s, ledger := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	// Blow the FREE budget so the hard cap kicks in on top of routing.
	err := ledger.InsertUsage(context.Background(), model.UsageRecord{
		UserID: "u9", InputTokens: 10_000_000, OutputTokens: 10_000_000, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}

	body := `{"requested_model":"claude-3-opus","messages":[{"role":"user","content":"Prove step by step that the square root of 2 is irrational, then analyze the proof in depth."}],"user_id":"u9"}`
	resp, err := http.Post(srv.URL+"/v1/route", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/route: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var d routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !d.BudgetCapped || d.CapReason == "" {
		t.Fatalf("decision = %+v, want budget cap applied", d)
	}
	if d.SelectedModel != "deepseek-coder-6.7b" {
		t.Fatalf("SelectedModel = %q, want cheapest model", d.SelectedModel)
	}
}

func TestHandleRouteRejectsBadRequests(t *testing.T) {
	s, _ := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/route")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d, want 405", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/v1/route", "application/json", strings.NewReader(`{"messages":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing model status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleUsageThenCosts(t *testing.T) {
	s, _ := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	body := `{"user_id":"u1","model":"deepseek-chat","input_tokens":1000000,"output_tokens":1000000}`
	resp, err := http.Post(srv.URL+"/v1/usage", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/usage: %v", err)
	}
	var tracked map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&tracked); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("usage status = %d", resp.StatusCode)
	}
	if math.Abs(tracked["cost_usd"]-1.37) > 1e-9 {
		t.Fatalf("cost_usd = %v, want 1.37", tracked["cost_usd"])
	}

	resp, err = http.Get(srv.URL + "/v1/costs?user=u1&plan=PRO")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("costs status = %d", resp.StatusCode)
	}
	var summary model.MonthlyCostSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.APICallCount != 1 || summary.TotalCostUSD <= 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.MonthlyLimit != config.ProMonthlyUSD {
		t.Fatalf("MonthlyLimit = %v, want PRO ceiling", summary.MonthlyLimit)
	}
}

func TestHandleAffordReturns402WhenBlocked(t *testing.T) {
	s, ledger := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	// Empty ledger: affordable.
	resp, err := http.Get(srv.URL + "/v1/afford?user=u1&model=deepseek-chat&input_tokens=1000&output_tokens=1000")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("empty ledger status = %d, want 200", resp.StatusCode)
	}

	// Blow the FREE budget, then check again for a fresh user path.
	err = ledger.InsertUsage(context.Background(), model.UsageRecord{
		UserID: "u2", InputTokens: 10_000_000, OutputTokens: 10_000_000, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
	resp, err = http.Get(srv.URL + "/v1/afford?user=u2&model=deepseek-chat&input_tokens=1000&output_tokens=1000")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("over-limit status = %d, want 402", resp.StatusCode)
	}
	var a tracking.Affordability
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		t.Fatal(err)
	}
	if a.Allowed || a.Reason == "" {
		t.Fatalf("affordability = %+v", a)
	}
}

func TestHandleSavings(t *testing.T) {
	s, ledger := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	err := ledger.InsertRun(context.Background(), model.PromptRun{
		UserID: "u1", Model: "deepseek-chat", RequestedModel: "gpt-4-turbo",
		TokensUsed: 1_000_000, Cost: 0.69, Savings: 19.31, CreatedAt: time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL + "/v1/savings?user=u1&days=7")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("savings status = %d", resp.StatusCode)
	}
	var sum model.SavingsSummary
	if err := json.NewDecoder(resp.Body).Decode(&sum); err != nil {
		t.Fatal(err)
	}
	if math.Abs(sum.SmartRouting-19.31) > 1e-9 {
		t.Fatalf("SmartRouting = %v, want 19.31", sum.SmartRouting)
	}
}

func TestHealthAndStatus(t *testing.T) {
	s, _ := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.PollIntervalSec != 10 {
		t.Fatalf("PollIntervalSec = %d, want 10", st.PollIntervalSec)
	}
}
