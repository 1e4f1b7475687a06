// Package store provides the SQLite-backed usage ledger: raw API usage rows,
// routing feedback, and completed prompt runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Jrmromao/costlens/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Ledger wraps the SQLite database holding all persisted usage data.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at the given path.
func Open(dbPath string) (*Ledger, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the ledger database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// InsertUsage appends one metered API call. The record's Model field is not
// written; the ledger stores token counts only.
func (l *Ledger) InsertUsage(ctx context.Context, rec model.UsageRecord) error {
	_, err := l.db.ExecContext(ctx, `INSERT INTO api_usage
		(user_id, prompt_id, input_tokens, output_tokens, is_cache_hit, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.PromptID, rec.InputTokens, rec.OutputTokens,
		boolInt(rec.CacheHit), fmtTime(rec.CreatedAt),
	)
	return err
}

// InsertFeedback appends one routing quality rating.
func (l *Ledger) InsertFeedback(ctx context.Context, rec model.FeedbackRecord) error {
	_, err := l.db.ExecContext(ctx, `INSERT INTO routing_feedback
		(user_id, original_model, selected_model, quality_rating, was_helpful, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.OriginalModel, rec.SelectedModel, rec.QualityRating,
		boolInt(rec.WasHelpful), fmtTime(rec.CreatedAt),
	)
	return err
}

// InsertRun appends one completed prompt run with its cost accounting.
func (l *Ledger) InsertRun(ctx context.Context, run model.PromptRun) error {
	_, err := l.db.ExecContext(ctx, `INSERT INTO prompt_runs
		(user_id, model, requested_model, input_tokens, output_tokens,
		 tokens_used, cost, savings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.UserID, run.Model, run.RequestedModel, run.InputTokens, run.OutputTokens,
		run.TokensUsed, run.Cost, run.Savings, fmtTime(run.CreatedAt),
	)
	return err
}

// RecentFeedback returns up to limit feedback rows for a user, newest first.
func (l *Ledger) RecentFeedback(ctx context.Context, userID string, limit int) ([]model.FeedbackRecord, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT
		user_id, original_model, selected_model, quality_rating, was_helpful, created_at
		FROM routing_feedback WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.FeedbackRecord
	for rows.Next() {
		var rec model.FeedbackRecord
		var helpful int
		var created string
		if err := rows.Scan(&rec.UserID, &rec.OriginalModel, &rec.SelectedModel,
			&rec.QualityRating, &helpful, &created); err != nil {
			return nil, err
		}
		rec.WasHelpful = helpful != 0
		rec.CreatedAt = parseTime(created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UsageTotals are aggregate token counts over a window of api_usage rows.
type UsageTotals struct {
	InputTokens  int64
	OutputTokens int64
	CallCount    int
}

// MonthlyUsage sums a user's api_usage rows in [start, end).
func (l *Ledger) MonthlyUsage(ctx context.Context, userID string, start, end time.Time) (UsageTotals, error) {
	var t UsageTotals
	err := l.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COUNT(*)
		FROM api_usage
		WHERE user_id = ? AND created_at >= ? AND created_at < ?`,
		userID, fmtTime(start), fmtTime(end),
	).Scan(&t.InputTokens, &t.OutputTokens, &t.CallCount)
	return t, err
}

// CacheHitTokens sums the tokens on cache-hit rows for a user in [start, end).
func (l *Ledger) CacheHitTokens(ctx context.Context, userID string, start, end time.Time) (UsageTotals, error) {
	var t UsageTotals
	err := l.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COUNT(*)
		FROM api_usage
		WHERE user_id = ? AND is_cache_hit = 1 AND created_at >= ? AND created_at < ?`,
		userID, fmtTime(start), fmtTime(end),
	).Scan(&t.InputTokens, &t.OutputTokens, &t.CallCount)
	return t, err
}

// RunsInRange returns a user's prompt runs in [start, end), oldest first.
// An empty userID returns runs for all users.
func (l *Ledger) RunsInRange(ctx context.Context, userID string, start, end time.Time) ([]model.PromptRun, error) {
	query := `SELECT user_id, model, requested_model, input_tokens, output_tokens,
		tokens_used, cost, savings, created_at
		FROM prompt_runs WHERE created_at >= ? AND created_at < ?`
	args := []any{fmtTime(start), fmtTime(end)}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.PromptRun
	for rows.Next() {
		var run model.PromptRun
		var created string
		if err := rows.Scan(&run.UserID, &run.Model, &run.RequestedModel,
			&run.InputTokens, &run.OutputTokens, &run.TokensUsed,
			&run.Cost, &run.Savings, &created); err != nil {
			return nil, err
		}
		run.CreatedAt = parseTime(created)
		out = append(out, run)
	}
	return out, rows.Err()
}

// UserTotals is one user's aggregate token usage over a window.
type UserTotals struct {
	UserID string
	UsageTotals
}

// UserMonthTotals returns per-user api_usage totals in [start, end),
// sorted by user id for stable iteration.
func (l *Ledger) UserMonthTotals(ctx context.Context, start, end time.Time) ([]UserTotals, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT
		user_id, COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COUNT(*)
		FROM api_usage
		WHERE created_at >= ? AND created_at < ?
		GROUP BY user_id ORDER BY user_id`,
		fmtTime(start), fmtTime(end))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []UserTotals
	for rows.Next() {
		var t UserTotals
		if err := rows.Scan(&t.UserID, &t.InputTokens, &t.OutputTokens, &t.CallCount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// PlatformTotals aggregates api_usage across all users in [start, end).
func (l *Ledger) PlatformTotals(ctx context.Context, start, end time.Time) (UsageTotals, int, error) {
	var t UsageTotals
	var users int
	err := l.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COUNT(*),
		COUNT(DISTINCT user_id)
		FROM api_usage
		WHERE created_at >= ? AND created_at < ?`,
		fmtTime(start), fmtTime(end),
	).Scan(&t.InputTokens, &t.OutputTokens, &t.CallCount, &users)
	return t, users, err
}
