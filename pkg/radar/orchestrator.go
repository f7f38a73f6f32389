package radar

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/momentlabs/radar/pkg/metrics"
)

// Extractor turns a raw listing-page excerpt into candidate events. It must
// re-apply the date-window and keyword filters: extraction output is not
// trusted to have honored the criteria. It never fails; malformed output is
// an empty slice.
type Extractor interface {
	Extract(ctx context.Context, markup string, criteria Criteria) []Event
}

// QueryResolver infers a search scope from free-text draft fields. A nil
// city in the result is an expected outcome, not an error.
type QueryResolver interface {
	Resolve(ctx context.Context, draft Draft) Resolution
}

// UsageLimiter enforces the per-user daily quota on derived-input runs.
// Elevated callers are always allowed and never touch stored state.
type UsageLimiter interface {
	CheckAndIncrement(ctx context.Context, userID string, elevated bool) (bool, error)
}

// RadarRequest is one derived-input invocation.
type RadarRequest struct {
	Draft            Draft
	UserID           string
	Elevated         bool
	OverrideKeywords []string
}

// Orchestrator fans a search out to every source concurrently, merges the
// partial results, chains the extraction step behind the raw-HTML fetch and
// pushes progress over an ordered message stream.
type Orchestrator struct {
	providers  []Provider
	raw        ExcerptFetcher
	extractor  Extractor
	resolver   QueryResolver
	limiter    UsageLimiter
	quotaLimit int
	budget     time.Duration
	log        zerolog.Logger
}

// NewOrchestrator wires the four adapters from config. Resolver and limiter
// may be nil when derived-input mode is not served.
func NewOrchestrator(cfg *Config, cities *Cities, extractor Extractor, resolver QueryResolver, limiter UsageLimiter, log zerolog.Logger) *Orchestrator {
	cfg = cfg.WithDefaults()
	o := &Orchestrator{
		raw:        newRawProvider(cfg, cities, log),
		extractor:  extractor,
		resolver:   resolver,
		limiter:    limiter,
		quotaLimit: cfg.Quota.DailyLimit,
		budget:     time.Duration(OrchestratorTimeoutSecs) * time.Second,
		log:        log.With().Str("component", "orchestrator").Logger(),
	}
	registry := NewRegistry()
	registry.Register(newAPIProvider(cfg, cities, log))
	registry.Register(newGraphQLProvider(cfg, cities, log))
	registry.Register(newHTMLProvider(cfg, cities, log))
	o.providers = registry.All()
	return o
}

// NewOrchestratorWith assembles an orchestrator from explicit parts. Used by
// tests and callers that bring their own providers.
func NewOrchestratorWith(providers []Provider, raw ExcerptFetcher, extractor Extractor, resolver QueryResolver, limiter UsageLimiter, quotaLimit int, log zerolog.Logger) *Orchestrator {
	if quotaLimit <= 0 {
		quotaLimit = DailyQuota
	}
	return &Orchestrator{
		providers:  providers,
		raw:        raw,
		extractor:  extractor,
		resolver:   resolver,
		limiter:    limiter,
		quotaLimit: quotaLimit,
		budget:     time.Duration(OrchestratorTimeoutSecs) * time.Second,
		log:        log,
	}
}

// Run executes an explicit-mode search. The returned channel carries the
// ordered message stream and is closed after the done frame.
func (o *Orchestrator) Run(ctx context.Context, criteria Criteria) <-chan Message {
	out := make(chan Message, 8)
	metrics.SearchesStarted.WithLabelValues("search").Inc()
	run := o.runLogger("search")
	go func() {
		defer close(out)
		defer o.finish(ctx, out, run)
		o.search(ctx, run, criteria, "", out)
	}()
	return out
}

// RunRadar executes a derived-input run: quota check, scope resolution, then
// the same aggregation over the draft's week.
func (o *Orchestrator) RunRadar(ctx context.Context, req RadarRequest) <-chan Message {
	out := make(chan Message, 8)
	metrics.SearchesStarted.WithLabelValues("radar").Inc()
	run := o.runLogger("radar")
	go func() {
		defer close(out)
		defer o.finish(ctx, out, run)

		if o.limiter != nil {
			allowed, err := o.limiter.CheckAndIncrement(ctx, req.UserID, req.Elevated)
			if err != nil {
				run.Error().Err(err).Str("user_id", req.UserID).Msg("Quota check failed")
				o.emit(ctx, out, errorMessage("usage check failed", ""))
				return
			}
			if !allowed {
				metrics.QuotaRejections.Inc()
				o.emit(ctx, out, rateLimitMessage(o.quotaLimit))
				return
			}
		}

		if !o.emit(ctx, out, statusMessage("Reading your event draft")) {
			return
		}

		var resolution Resolution
		if o.resolver != nil {
			resolution = o.resolver.Resolve(ctx, req.Draft)
		}
		if len(req.OverrideKeywords) > 0 {
			resolution.Keywords = req.OverrideKeywords
		}
		if resolution.City == nil || strings.TrimSpace(*resolution.City) == "" {
			o.emit(ctx, out, noCityMessage())
			return
		}
		city := strings.TrimSpace(*resolution.City)
		if !o.emit(ctx, out, keywordsMessage(resolution.Keywords, city)) {
			return
		}

		from, to, ok := req.Draft.WeekWindow()
		if !ok {
			o.emit(ctx, out, errorMessage("event draft has no usable start time", ""))
			return
		}
		o.search(ctx, run, Criteria{
			City:     city,
			DateFrom: from,
			DateTo:   to,
			Keywords: resolution.Keywords,
		}, req.Draft.TargetDate(), out)
	}()
	return out
}

// finish recovers any orchestrator-level failure into an error frame and
// terminates the stream. Runs deferred, so done is always the last frame and
// is sent exactly once.
func (o *Orchestrator) finish(ctx context.Context, out chan<- Message, run zerolog.Logger) {
	if r := recover(); r != nil {
		run.Error().Interface("panic", r).Msg("Orchestrator run failed")
		o.emit(ctx, out, errorMessage("internal error", fmt.Sprintf("%v", r)))
	}
	o.emit(ctx, out, doneMessage())
}

func (o *Orchestrator) search(ctx context.Context, run zerolog.Logger, criteria Criteria, targetDate string, out chan<- Message) {
	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
		run.Debug().Dur("took", time.Since(start)).Msg("Radar run settled")
	}()

	scope := fmt.Sprintf("Scanning %s from %s to %s", criteria.City, criteria.DateFrom, criteria.DateTo)
	if len(criteria.Keywords) > 0 {
		scope += " for " + strings.Join(criteria.Keywords, ", ")
	}
	if !o.emit(ctx, out, statusMessage(scope)) {
		return
	}
	if !o.emit(ctx, out, toolCallMessage(fmt.Sprintf("Querying %d event sources", len(o.providers)+1))) {
		return
	}

	// The fan-out is a join, not a race: extraction depends on the raw
	// excerpt, so every adapter must settle before the merge.
	runCtx, cancel := context.WithTimeout(ctx, o.budget)
	defer cancel()

	results := make([][]Event, len(o.providers))
	var excerpt string
	var wg sync.WaitGroup
	for i, provider := range o.providers {
		wg.Add(1)
		go func(i int, provider Provider) {
			defer wg.Done()
			results[i] = provider.Search(runCtx, criteria)
		}(i, provider)
	}
	if o.raw != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			excerpt = o.raw.FetchExcerpt(runCtx, criteria)
		}()
	}
	wg.Wait()

	var diag []string
	merged := make([]Event, 0, 32)
	for i, provider := range o.providers {
		diag = append(diag, fmt.Sprintf("%s: %d events", provider.Name(), len(results[i])))
		merged = append(merged, results[i]...)
	}
	if o.raw != nil {
		diag = append(diag, fmt.Sprintf("%s: %d bytes of markup", o.raw.Name(), len(excerpt)))
	}
	if !o.emit(ctx, out, toolResultMessage(strings.Join(diag, "; "))) {
		return
	}

	if o.extractor != nil && len(excerpt) >= MinExcerptBytes {
		if !o.emit(ctx, out, statusMessage("Reading scraped listings")) {
			return
		}
		merged = append(merged, o.extractor.Extract(runCtx, excerpt, criteria)...)
	}

	SortEvents(merged)
	summary := make(map[string]int, 4)
	for _, ev := range merged {
		summary[string(ev.Source)]++
		metrics.SourceEvents.WithLabelValues(string(ev.Source)).Inc()
	}
	o.emit(ctx, out, eventsMessage(merged, summary, criteria.DateFrom, criteria.DateTo, targetDate))
}

// runLogger tags every frame-producing goroutine with a unique run ID.
func (o *Orchestrator) runLogger(mode string) zerolog.Logger {
	return o.log.With().Str("mode", mode).Str("run_id", xid.New().String()).Logger()
}

// emit pushes a frame unless the caller has gone away.
func (o *Orchestrator) emit(ctx context.Context, out chan<- Message, msg Message) bool {
	select {
	case out <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}
