package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClientRejectsEmptyKey(t *testing.T) {
	if NewClient("", "") != nil {
		t.Fatal("empty key must yield nil client")
	}
	if NewClient("   ", "") != nil {
		t.Fatal("blank key must yield nil client")
	}
	if NewClient("bk-test", "") == nil {
		t.Fatal("valid key must yield a client")
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{`12.34`, 12.34, true},
		{`0`, 0, true},
		{`"12.34"`, 12.34, true},
		{`"$12.34"`, 12.34, true},
		{`"1,234.56"`, 1234.56, true},
		{`"garbage"`, 0, false},
		{`null`, 0, false},
		{`{}`, 0, false},
	}
	for _, tc := range cases {
		got, ok := parseAmount(json.RawMessage(tc.raw))
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseAmount(%s) = (%v, %v), want (%v, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFetchSpendParsesPolymorphicAmounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer bk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Query().Get("start") == "" || r.URL.Query().Get("end") == "" {
			t.Error("missing start/end query params")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total_usd": "$13.70",
			"by_model": {"deepseek-chat": 1.096, "gpt-4o": "2.50"},
			"period_start": "2025-06-01T00:00:00Z",
			"period_end": "2025-07-01T00:00:00Z"
		}`))
	}))
	defer srv.Close()

	c := NewClient("bk-test", srv.URL)
	spend, err := c.FetchSpend(context.Background(), "acct-1",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchSpend: %v", err)
	}
	if spend.TotalUSD != 13.70 {
		t.Errorf("TotalUSD = %v, want 13.70", spend.TotalUSD)
	}
	if spend.ByModel["deepseek-chat"] != 1.096 || spend.ByModel["gpt-4o"] != 2.50 {
		t.Errorf("ByModel = %v", spend.ByModel)
	}
	if spend.PeriodStart.IsZero() || spend.PeriodEnd.IsZero() {
		t.Error("period bounds not parsed")
	}
}

func TestSentinelErrors(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c := NewClient("bk-test", srv.URL)
		_, err := c.FetchAccounts(context.Background())
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: err = %v, want %v", tc.status, err, tc.want)
		}
		srv.Close()
	}
}

func TestFetchActualsPartialOnSpendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/accounts" {
			_, _ = w.Write([]byte(`[{"id":"acct-1","name":"Main","provider":"deepseek"}]`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("bk-test", srv.URL)
	got := c.FetchActuals(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	if got.Account.ID != "acct-1" {
		t.Errorf("Account = %+v, want acct-1 despite spend failure", got.Account)
	}
	if got.Spend != nil {
		t.Error("Spend should be nil on failure")
	}
	if got.Error == nil {
		t.Error("Error should carry the spend failure")
	}
}
