package engine

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hylla/balans/internal/domain"
)

// Classifier infers the work category an activity record belongs to. External
// implementations may call out to a language-model service; the pipeline
// bounds their concurrency and recovers from per-record failures.
type Classifier interface {
	Classify(ctx context.Context, rec domain.ActivityRecord) (domain.WorkCategory, error)
}

// defaultClassifyConcurrency bounds in-flight external classification calls.
const defaultClassifyConcurrency = 5

// defaultClassifyTimeout bounds one external classification call before the
// record falls back to the conservative default category.
const defaultClassifyTimeout = 15 * time.Second

// KeywordClassifier assigns categories by keyword matching against record
// content. It is deterministic, requires no I/O, and is the pipeline default.
type KeywordClassifier struct {
	keywords map[domain.WorkCategory][]string
}

// NewKeywordClassifier builds one keyword classifier from a keyword table.
func NewKeywordClassifier(keywords map[domain.WorkCategory][]string) *KeywordClassifier {
	return &KeywordClassifier{keywords: keywords}
}

// Classify returns the category with the most keyword hits in the record
// content, breaking ties in canonical category order. Records with no hits
// classify as general.
func (c *KeywordClassifier) Classify(_ context.Context, rec domain.ActivityRecord) (domain.WorkCategory, error) {
	content := strings.ToLower(rec.Content)
	best := domain.CategoryGeneral
	bestHits := 0
	for _, category := range domain.Categories() {
		hits := 0
		for _, keyword := range c.keywords[category] {
			if strings.Contains(content, keyword) {
				hits++
			}
		}
		if hits > bestHits {
			best = category
			bestHits = hits
		}
	}
	return best, nil
}

// classification holds the category assignment pass output.
type classification struct {
	categories map[string]domain.WorkCategory
	attempted  int
	fallbacks  int
}

// classifyRecords assigns one category per valid record. With an external
// classifier the calls run with bounded concurrency and a per-record timeout;
// a timed-out or failed call falls back to the general category and is logged,
// never raised. One slow classification must not fail the whole analysis.
func (p *Pipeline) classifyRecords(ctx context.Context, records []domain.ActivityRecord) classification {
	out := classification{categories: make(map[string]domain.WorkCategory, len(records))}
	if len(records) == 0 {
		return out
	}

	type assignment struct {
		recordID string
		category domain.WorkCategory
		fallback bool
	}

	concurrency := p.classifyConcurrency
	if concurrency <= 0 {
		concurrency = defaultClassifyConcurrency
	}
	timeout := p.classifyTimeout
	if timeout <= 0 {
		timeout = defaultClassifyTimeout
	}

	results := make([]assignment, len(records))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, rec := range records {
		wg.Add(1)
		go func(idx int, rec domain.ActivityRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			category, err := p.classifier.Classify(callCtx, rec)
			if err != nil || !domain.IsValidCategory(category) {
				if p.logger != nil {
					p.logger.Warn("record classification fell back to default category", "record_id", rec.ID, "err", err)
				}
				results[idx] = assignment{recordID: rec.ID, category: domain.CategoryGeneral, fallback: true}
				return
			}
			results[idx] = assignment{recordID: rec.ID, category: domain.NormalizeCategory(category)}
		}(i, rec)
	}
	wg.Wait()

	for _, res := range results {
		out.categories[res.recordID] = res.category
		out.attempted++
		if res.fallback {
			out.fallbacks++
		}
	}
	return out
}

// sortedPersonIDs returns the union of person ids across reports and records
// in deterministic order.
func sortedPersonIDs(reports []domain.SelfReport, records []domain.ActivityRecord) []string {
	seen := map[string]struct{}{}
	ids := make([]string, 0, len(reports))
	for _, report := range reports {
		if _, ok := seen[report.PersonID]; ok {
			continue
		}
		seen[report.PersonID] = struct{}{}
		ids = append(ids, report.PersonID)
	}
	for _, rec := range records {
		if _, ok := seen[rec.PersonID]; ok {
			continue
		}
		seen[rec.PersonID] = struct{}{}
		ids = append(ids, rec.PersonID)
	}
	sort.Strings(ids)
	return ids
}
