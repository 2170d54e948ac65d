// Package screen orchestrates a full screening run: schema detection and
// record retrieval per source, similarity scoring against the subject,
// cross-source aggregation and ranking of the resulting groups.
package screen

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"runtime"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/profile-screener/internal/aggregate"
	"github.com/profile-screener/internal/rank"
	"github.com/profile-screener/internal/schema"
	"github.com/profile-screener/internal/score"
	"github.com/profile-screener/internal/source"
)

// SourceReport describes what a single source contributed to a run.
type SourceReport struct {
	Source     string         `json:"source"`
	Name       string         `json:"name,omitempty"`
	Mapping    schema.Mapping `json:"mapping,omitempty"`
	Candidates int            `json:"candidates"`
	Matches    int            `json:"matches"`
	Skipped    int            `json:"skipped_records"`
	Err        string         `json:"error,omitempty"`
}

// Result is the outcome of one screening run.
type Result struct {
	Groups   []aggregate.MatchGroup `json:"groups"`
	Reports  []SourceReport         `json:"source_reports"`
	Partial  bool                   `json:"partial"`
	Enriched score.SubjectProfile   `json:"enriched_profile,omitempty"`
}

// AddressExpander canonicalises addresses before they are scored, so
// "14 MG Rd" and "14 MG Road" compare as the same street. Implemented by
// the postal package; kept as an interface here so only binaries that
// enable it link libpostal.
type AddressExpander interface {
	Expand(address string) []string
}

// Engine screens subject profiles against configured record sources.
type Engine struct {
	scorer     *score.Scorer
	aggregator *aggregate.Aggregator
	db         *sql.DB
	pool       *ants.Pool
	log        *zap.Logger
	expander   AddressExpander
	limit      int
	sampleSize int
}

// Option configures an Engine.
type Option func(*Engine) error

// WithDB supplies the database handle used for relational sources.
func WithDB(db *sql.DB) Option {
	return func(e *Engine) error {
		e.db = db
		return nil
	}
}

// WithLogger replaces the default no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) error {
		if log != nil {
			e.log = log
		}
		return nil
	}
}

// WithScorer replaces the default scorer, e.g. to change weights or
// thresholds.
func WithScorer(s *score.Scorer) Option {
	return func(e *Engine) error {
		if s != nil {
			e.scorer = s
		}
		return nil
	}
}

// WithPoolSize sets the number of source tasks screened concurrently.
func WithPoolSize(n int) Option {
	return func(e *Engine) error {
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		e.pool = pool
		return nil
	}
}

// WithLimit caps how many ranked groups a run returns.
func WithLimit(n int) Option {
	return func(e *Engine) error {
		if n > 0 {
			e.limit = n
		}
		return nil
	}
}

// WithSampleSize sets how many records are sampled for schema detection.
func WithSampleSize(n int) Option {
	return func(e *Engine) error {
		if n > 0 {
			e.sampleSize = n
		}
		return nil
	}
}

// WithAddressExpander canonicalises every address through the expander
// before scoring.
func WithAddressExpander(x AddressExpander) Option {
	return func(e *Engine) error {
		e.expander = x
		return nil
	}
}

// NewEngine builds an engine with default scorer, thresholds and pool.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		scorer:     score.NewScorer(),
		log:        zap.NewNop(),
		limit:      rank.DefaultLimit,
		sampleSize: source.DefaultSampleSize,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.pool == nil {
		size := runtime.NumCPU()
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return nil, err
		}
		e.pool = pool
	}
	e.aggregator = aggregate.NewAggregator(e.scorer)
	return e, nil
}

// Release frees the worker pool. The engine must not be used afterwards.
func (e *Engine) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// DetectSchema infers the canonical field mapping for a single source.
func (e *Engine) DetectSchema(ctx context.Context, desc source.Descriptor) (schema.Mapping, error) {
	adapter, err := source.NewAdapter(desc, e.db)
	if err != nil {
		return nil, err
	}
	return e.detect(ctx, adapter)
}

// Match screens the subject against every source and returns ranked
// cross-source match groups. Per-source failures are reported, not fatal;
// the only fatal request error is an invalid subject profile. A cancelled
// context yields whatever completed before cancellation, flagged partial.
func (e *Engine) Match(ctx context.Context, subject score.SubjectProfile, sources []source.Descriptor) (*Result, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	if e.expander != nil {
		subject = subject.Clone()
		e.expandAddress(subject)
	}

	col := &collector{}
	var wg sync.WaitGroup
	for _, desc := range sources {
		desc := desc
		wg.Add(1)
		run := func() {
			defer wg.Done()
			col.add(e.screenSource(ctx, subject, desc))
		}
		if err := e.pool.Submit(run); err != nil {
			// Pool rejected the task; run it on the caller instead.
			run()
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	partial := ctx.Err() != nil
	if partial {
		e.log.Warn("screening cancelled, returning partial results",
			zap.Error(ctx.Err()))
	}

	results, reports := col.snapshot()
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Source < reports[j].Source
	})

	groups := rank.Rank(e.aggregator.Aggregate(results), e.limit)

	return &Result{
		Groups:   groups,
		Reports:  reports,
		Partial:  partial,
		Enriched: enrich(subject, groups),
	}, nil
}

// screenSource detects the source schema, walks its records and scores
// every candidate against the subject. It never panics the run; failures
// land in the report.
func (e *Engine) screenSource(ctx context.Context, subject score.SubjectProfile, desc source.Descriptor) outcome {
	report := SourceReport{Source: desc.Key(), Name: desc.Name}

	adapter, err := source.NewAdapter(desc, e.db)
	if err != nil {
		report.Err = err.Error()
		return outcome{report: report}
	}

	mapping, err := e.detect(ctx, adapter)
	if err != nil {
		report.Err = err.Error()
		return outcome{report: report}
	}
	report.Mapping = mapping
	if len(mapping) == 0 {
		e.log.Info("no canonical fields recognised",
			zap.String("source", report.Source))
	}

	it, err := adapter.Records(ctx)
	if err != nil {
		report.Err = err.Error()
		return outcome{report: report}
	}
	defer it.Close()

	floor := e.scorer.Thresholds().Floor
	var results []score.SimilarityResult
	ordinal := 0
	for {
		raw, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// The run-level partial flag covers cancellation.
				break
			}
			report.Err = err.Error()
			break
		}
		cand := source.Normalize(report.Source, ordinal, raw, mapping)
		ordinal++
		report.Candidates++
		e.expandAddress(cand.Fields)

		r, ok := e.scorer.Score(subject, cand)
		if !ok || r.Composite < floor {
			continue
		}
		results = append(results, r)
	}
	report.Skipped = it.Skipped()
	report.Matches = len(results)

	e.log.Debug("source screened",
		zap.String("source", report.Source),
		zap.Int("candidates", report.Candidates),
		zap.Int("matches", report.Matches),
		zap.Int("skipped", report.Skipped))
	return outcome{report: report, results: results}
}

// expandAddress swaps the address for its primary libpostal expansion.
// The raw value survives on the candidate's native record.
func (e *Engine) expandAddress(fields map[schema.Field]string) {
	if e.expander == nil {
		return
	}
	addr, ok := fields[schema.FieldAddress]
	if !ok {
		return
	}
	if exp := e.expander.Expand(addr); len(exp) > 0 {
		fields[schema.FieldAddress] = exp[0]
	}
}

func (e *Engine) detect(ctx context.Context, adapter source.Adapter) (schema.Mapping, error) {
	fields, err := adapter.Fields(ctx)
	if err != nil {
		return nil, err
	}
	samples, err := adapter.Sample(ctx, e.sampleSize)
	if err != nil {
		// Header names may resolve on their own; value shapes are a
		// fallback, not a requirement.
		samples = nil
	}
	return schema.Detect(fields, samples), nil
}

type outcome struct {
	report  SourceReport
	results []score.SimilarityResult
}

// collector is the single hand-off point between source tasks and the
// aggregation stage. Only completed outcomes are added, so a cancelled
// run can safely snapshot whatever arrived in time.
type collector struct {
	mu      sync.Mutex
	results []score.SimilarityResult
	reports []SourceReport
}

func (c *collector) add(o outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, o.results...)
	c.reports = append(c.reports, o.report)
}

func (c *collector) snapshot() ([]score.SimilarityResult, []SourceReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	results := make([]score.SimilarityResult, len(c.results))
	copy(results, c.results)
	reports := make([]SourceReport, len(c.reports))
	copy(reports, c.reports)
	return results, reports
}

// enrich copies canonical fields found on matched candidates but absent
// from the subject into a fresh profile. The subject itself is never
// mutated. Returns nil when the matches add nothing.
func enrich(subject score.SubjectProfile, groups []aggregate.MatchGroup) score.SubjectProfile {
	enriched := subject.Clone()
	added := false
	for _, g := range groups {
		for _, m := range g.Members {
			for field, value := range m.Candidate.Fields {
				if _, ok := enriched[field]; !ok {
					enriched[field] = value
					added = true
				}
			}
		}
	}
	if !added {
		return nil
	}
	return enriched
}
