// Package routing decides which model actually serves a request, given the
// capability catalog, the analyzed prompt, and the user's quality history.
package routing

import (
	"context"
	"log"

	"github.com/Jrmromao/costlens/internal/model"
)

// feedbackWindow is how many recent feedback rows inform a preference.
const feedbackWindow = 50

// Preference is the per-user routing tolerance derived from feedback history.
type Preference struct {
	QualityThreshold float64 // 0.0-1.0 floor on candidate quality
	MaxCostIncrease  float64 // multiplier over the requested model's rate
	PreferredModels  []string
}

// DefaultPreference is used for anonymous users and as the fallback when
// feedback history cannot be read.
func DefaultPreference() Preference {
	return Preference{QualityThreshold: 0.8, MaxCostIncrease: 2.0}
}

// FeedbackSource supplies recent routing feedback for a user, newest first.
type FeedbackSource interface {
	RecentFeedback(ctx context.Context, userID string, limit int) ([]model.FeedbackRecord, error)
}

// Resolver computes routing preferences from feedback history.
type Resolver struct {
	src  FeedbackSource
	logf func(format string, args ...any)
}

// NewResolver builds a resolver over the given feedback source.
func NewResolver(src FeedbackSource) *Resolver {
	return &Resolver{src: src, logf: log.Printf}
}

// Resolve returns the preference for a user.
//
// A missing feedback history must never block routing: fetch errors are
// logged and the default preference is returned. Callers that need to react
// to persistence failures should watch the log, not this return value.
func (r *Resolver) Resolve(ctx context.Context, userID string) Preference {
	if userID == "" || r.src == nil {
		return DefaultPreference()
	}

	rows, err := r.src.RecentFeedback(ctx, userID, feedbackWindow)
	if err != nil {
		r.logf("routing: feedback lookup for %s failed, using defaults: %v", userID, err)
		return DefaultPreference()
	}

	avg := 4.0
	if len(rows) > 0 {
		sum := 0
		for _, row := range rows {
			sum += row.QualityRating
		}
		avg = float64(sum) / float64(len(rows))
	}

	pref := Preference{}
	switch {
	case avg >= 4.5:
		pref.QualityThreshold = 0.9
		pref.MaxCostIncrease = 3.0
	case avg >= 4.0:
		pref.QualityThreshold = 0.8
		pref.MaxCostIncrease = 2.0
	default:
		pref.QualityThreshold = 0.7
		pref.MaxCostIncrease = 2.0
	}

	seen := make(map[string]struct{})
	for _, row := range rows {
		if row.QualityRating < 4 {
			continue
		}
		if _, dup := seen[row.SelectedModel]; dup {
			continue
		}
		seen[row.SelectedModel] = struct{}{}
		pref.PreferredModels = append(pref.PreferredModels, row.SelectedModel)
	}

	return pref
}
