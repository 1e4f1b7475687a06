package routing

import (
	"context"
	"log"
	"time"

	"github.com/Jrmromao/costlens/internal/analyzer"
	"github.com/Jrmromao/costlens/internal/catalog"
	"github.com/Jrmromao/costlens/internal/model"
)

// FeedbackSink persists routing feedback rows.
type FeedbackSink interface {
	InsertFeedback(ctx context.Context, rec model.FeedbackRecord) error
}

// Router is the cost-aware routing entry point: analyze the prompt, resolve
// the user's tolerance, filter the catalog, pick the best model.
type Router struct {
	cat      *catalog.Catalog
	resolver *Resolver
	sink     FeedbackSink
	logf     func(format string, args ...any)
	now      func() time.Time
}

// NewRouter builds a router. src and sink may share one store handle.
func NewRouter(cat *catalog.Catalog, src FeedbackSource, sink FeedbackSink) *Router {
	return &Router{
		cat:      cat,
		resolver: NewResolver(src),
		sink:     sink,
		logf:     log.Printf,
		now:      time.Now,
	}
}

// Route decides which model should serve this request. userID may be empty
// for anonymous requests.
func (r *Router) Route(ctx context.Context, requestedModel string, messages []analyzer.Message, userID string) Decision {
	an := analyzer.Analyze(messages)
	pref := r.resolver.Resolve(ctx, userID)
	candidates := FilterCandidates(r.cat, requestedModel, an, pref)
	return Select(r.cat, requestedModel, candidates, an)
}

// RecordFeedback persists one quality rating for a routed response.
//
// Feedback is best-effort telemetry: persistence errors are logged and
// swallowed so a failing ledger never surfaces in the rating UX.
func (r *Router) RecordFeedback(ctx context.Context, userID, originalModel, selectedModel string, qualityRating int, wasHelpful bool) {
	if r.sink == nil {
		return
	}
	if qualityRating < 1 {
		qualityRating = 1
	}
	if qualityRating > 5 {
		qualityRating = 5
	}

	rec := model.FeedbackRecord{
		UserID:        userID,
		OriginalModel: originalModel,
		SelectedModel: selectedModel,
		QualityRating: qualityRating,
		WasHelpful:    wasHelpful,
		CreatedAt:     r.now().UTC(),
	}
	if err := r.sink.InsertFeedback(ctx, rec); err != nil {
		r.logf("routing: feedback insert for %s failed: %v", userID, err)
	}
}
