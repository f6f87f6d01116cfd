package search

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aeo-labs/aeo-search/internal/metrics"
)

// ResultFetcher retrieves raw SERP markup for a query.
type ResultFetcher interface {
	Configured() bool
	Fetch(ctx context.Context, query string) (string, error)
}

// CitationExtractor parses raw markup into ordered citations.
type CitationExtractor interface {
	Extract(doc string) []Citation
}

// AnswerSynthesizer produces a grounded answer, never failing.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, query string, citations []Citation) string
}

// HistoryWriter accepts a completed interaction for durable storage. The
// write must not block the caller and its outcome must stay contained in
// the implementation; the orchestrator only hands the record over.
type HistoryWriter interface {
	WriteSearchHistory(rec HistoryRecord)
}

// ResponseCache stores whole responses keyed by query. Lookups and stores
// are best-effort; implementations absorb their own failures.
type ResponseCache interface {
	Get(ctx context.Context, query string) (*Response, bool)
	Set(ctx context.Context, query string, resp *Response)
}

// Orchestrator sequences fetch, extraction and synthesis for one query and
// hands the completed interaction to the history store without waiting on
// it. History and cache are optional collaborators.
type Orchestrator struct {
	fetcher     ResultFetcher
	extractor   CitationExtractor
	synthesizer AnswerSynthesizer
	history     HistoryWriter
	cache       ResponseCache
	logger      *zap.Logger
}

// NewOrchestrator wires the pipeline. history and cache may be nil.
func NewOrchestrator(
	fetcher ResultFetcher,
	extractor CitationExtractor,
	synthesizer AnswerSynthesizer,
	history HistoryWriter,
	cache ResponseCache,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		fetcher:     fetcher,
		extractor:   extractor,
		synthesizer: synthesizer,
		history:     history,
		cache:       cache,
		logger:      logger,
	}
}

// Handle runs one search end to end. Errors are only possible before or at
// the fetch stage: a blank query, a missing proxy credential, or an
// upstream fetch failure. Once markup is retrieved, extraction and
// synthesis degrade internally and the request always completes with a
// well-formed response.
func (o *Orchestrator) Handle(ctx context.Context, query string) (*Response, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	if !o.fetcher.Configured() {
		return nil, ErrMissingCredential
	}

	requestID := uuid.New().String()
	logger := o.logger.With(zap.String("request_id", requestID), zap.String("query", q))

	if o.cache != nil {
		if resp, ok := o.cache.Get(ctx, q); ok {
			metrics.CacheHits.Inc()
			logger.Debug("Serving cached response")
			return resp, nil
		}
	}

	start := time.Now()
	doc, err := o.fetcher.Fetch(ctx, q)
	if err != nil {
		metrics.SearchesCompleted.WithLabelValues("fetch_error").Inc()
		return nil, err
	}
	metrics.StageDuration.WithLabelValues("fetch").Observe(time.Since(start).Seconds())

	extractStart := time.Now()
	citations := o.extractor.Extract(doc)
	metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(extractStart).Seconds())
	metrics.CitationsExtracted.Observe(float64(len(citations)))
	if citations == nil {
		citations = []Citation{}
	}

	synthStart := time.Now()
	answer := o.synthesizer.Synthesize(ctx, q, citations)
	metrics.StageDuration.WithLabelValues("synthesize").Observe(time.Since(synthStart).Seconds())

	resp := &Response{Answer: answer, Citations: citations}

	// A degraded answer is transient; caching it would pin the fallback
	// for the full TTL after the generation backend recovers.
	if o.cache != nil && answer != AnswerSynthesisUnavailable {
		o.cache.Set(ctx, q, resp)
	}

	if o.history != nil {
		urls := make([]string, len(citations))
		for i, c := range citations {
			urls[i] = c.URL
		}
		// Fire and forget: the writer queues the record and absorbs any
		// storage failure, so the response never waits on persistence.
		o.history.WriteSearchHistory(HistoryRecord{
			Query:        q,
			Answer:       answer,
			CitationURLs: urls,
		})
	}

	metrics.SearchesCompleted.WithLabelValues("ok").Inc()
	logger.Info("Search completed",
		zap.Int("citations", len(citations)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}
