// Package describer implements the Describer (C7): a bounded-concurrency
// worker pool that attaches LLM-generated descriptions and categories to
// every item needing one, then synthesizes a collection overview.
package describer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/events"
	"github.com/go-collectivist/collectivist/pkg/model"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

// DefaultWorkers is W when the caller doesn't specify a concurrency bound.
const DefaultWorkers = 5

// maxDescriptionGraphemes bounds a per-item description.
const maxDescriptionGraphemes = 150

// maxFewShotExamples bounds the priming set sampled before dispatch.
const maxFewShotExamples = 5

// maxOverviewSamples bounds the sample fed to overview synthesis.
const maxOverviewSamples = 10

// maxOverviewChars is the hard cap on the synthesized overview.
const maxOverviewChars = 500

// SaveFunc persists the current index state. Calls are serialized by the
// Describer; SaveFunc itself need not be concurrency-safe.
type SaveFunc func(idx *collection.Index) error

// Describer runs the description worker pool against an index.
type Describer struct {
	Chatter model.Chatter
	Bus     *events.Bus
}

// New constructs a Describer.
func New(chatter model.Chatter, bus *events.Bus) *Describer {
	return &Describer{Chatter: chatter, Bus: bus}
}

// emitItemEvent emits a single per-item progress event directly on the
// bus. Describer tasks run concurrently across workers, and Bus.Emit is
// safe for concurrent callers; Tracker's i/n bookkeeping is not, so
// per-item events bypass it in favor of explicit i/n here.
func (d *Describer) emitItemEvent(sev events.Severity, i, n int, itemName, msg string, metadata map[string]any) {
	d.Bus.Emit(events.Event{
		Stage:       "describe",
		CurrentItem: itemName,
		I:           i,
		N:           n,
		Severity:    sev,
		Message:     itemName + ": " + msg,
		Metadata:    metadata,
	})
}

type itemOutcome struct {
	index       int
	description string
	category    string
	skipped     bool
	failed      bool
}

// Run describes every item in idx needing one, using s's prompt template
// and content extractor, cfg's category list, a worker pool of size
// workers (DefaultWorkers if <= 0), and save for incremental persistence.
// Run mutates idx in place.
func (d *Describer) Run(ctx context.Context, s scanner.Scanner, cfg *collection.Config, idx *collection.Index, workers int, save SaveFunc) error {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	tracker := events.NewTracker(d.Bus)

	needIdx := make([]int, 0, len(idx.Items))
	for i := range idx.Items {
		if idx.Items[i].NeedsDescription() {
			needIdx = append(needIdx, i)
		}
	}

	total := len(needIdx)
	tracker.SetStage("describe", total)
	if total == 0 {
		tracker.CompleteStage("0/0")
		return nil
	}

	examples := sampleFewShot(idx.Items, maxFewShotExamples)
	fewShot := fewShotBlock(examples)

	var mu sync.Mutex // guards idx.Items merges and the save callback
	var described atomic.Int64
	var failed atomic.Int64
	var processed atomic.Int64
	var persistErr atomic.Value // holds error

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, itemIdx := range needIdx {
		if runCtx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(itemIdx int) {
			defer wg.Done()
			defer func() { <-sem }()

			if runCtx.Err() != nil {
				return
			}

			item := idx.Items[itemIdx] // snapshot; Description/Category not yet set
			outcome := d.describeOne(runCtx, s, cfg, item, fewShot)

			i := processed.Add(1)

			if outcome.skipped {
				d.emitItemEvent(events.SeverityInfo, int(i), total, item.ShortName, "skipped: no content", nil)
				return
			}
			if outcome.failed {
				failed.Add(1)
				d.emitItemEvent(events.SeverityWarn, int(i), total, item.ShortName, "failed to describe", nil)
				return
			}

			mu.Lock()
			desc := outcome.description
			cat := outcome.category
			idx.Items[itemIdx].Description = &desc
			idx.Items[itemIdx].Category = &cat
			err := save(idx)
			mu.Unlock()

			if err != nil {
				persistErr.Store(err)
				cancel()
				return
			}

			described.Add(1)
			d.emitItemEvent(events.SeveritySuccess, int(i), total, item.ShortName, "described", map[string]any{"category": cat})
		}(itemIdx)
	}

	wg.Wait()

	if v := persistErr.Load(); v != nil {
		return &collection.DescriberError{Kind: collection.DescriberErrPersistIO, Err: v.(error)}
	}

	tracker.CompleteStage(fmt.Sprintf("%d/%d", described.Load(), total))

	if described.Load() == 0 {
		return nil
	}

	d.synthesizeOverview(runCtx, idx, save, &mu)
	return nil
}

// describeOne performs one item's describe task: extract content, skip
// if empty, build the prompt, call the model, and parse the response.
// It never mutates idx — callers merge the result under the shared mutex.
func (d *Describer) describeOne(ctx context.Context, s scanner.Scanner, cfg *collection.Config, item collection.Item, fewShot string) itemOutcome {
	content := s.ContentForDescription(item)
	if strings.TrimSpace(content) == "" {
		return itemOutcome{skipped: true}
	}

	fields := buildFields(item, content)
	body := renderTemplate(s.DescriptionPromptTemplate(), fields)
	prompt := fewShot + body

	reply, err := d.Chatter.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: "You analyze collection items and provide concise descriptions and category assignments."},
		{Role: model.RoleUser, Content: prompt},
	}, 0.2, 300)
	if err != nil {
		return itemOutcome{failed: true}
	}

	desc, cat := parseDescribeResponse(reply, cfg)
	return itemOutcome{description: desc, category: cat}
}

type describeResponse struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

// parseDescribeResponse implements the documented parser: trim, try
// strict JSON, fall back to the raw trimmed reply truncated as the
// description with the sink category.
func parseDescribeResponse(reply string, cfg *collection.Config) (description, category string) {
	trimmed := strings.TrimSpace(reply)
	sink := cfg.MiscCategory()

	var resp describeResponse
	if err := json.Unmarshal([]byte(trimmed), &resp); err == nil {
		desc := truncateGraphemes(strings.TrimSpace(resp.Description), maxDescriptionGraphemes)
		cat := resp.Category
		if cat == "" || !cfg.HasCategory(cat) {
			cat = sink
		}
		return desc, cat
	}

	return truncateGraphemes(trimmed, maxDescriptionGraphemes), sink
}

func truncateGraphemes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// sampleFewShot takes up to n already-described items, in insertion
// (index) order, as the priming set for every per-item prompt.
func sampleFewShot(items []collection.Item, n int) []collection.Item {
	out := make([]collection.Item, 0, n)
	for _, it := range items {
		if len(out) >= n {
			break
		}
		if it.Description != nil && *it.Description != "" {
			out = append(out, it)
		}
	}
	return out
}

type overviewResponse struct {
	Overview string `json:"overview"`
}

// synthesizeOverview builds the aggregate prompt and, on success, sets
// idx.CollectionOverview and performs a final save. Failure is logged
// and leaves any prior overview untouched — this is not fatal.
func (d *Describer) synthesizeOverview(ctx context.Context, idx *collection.Index, save SaveFunc, mu *sync.Mutex) {
	tracker := events.NewTracker(d.Bus)

	histogram := map[string]int{}
	described := 0
	var samples []collection.Item
	for _, it := range idx.Items {
		if it.Description == nil || *it.Description == "" {
			continue
		}
		described++
		if it.Category != nil {
			histogram[*it.Category]++
		}
		if len(samples) < maxOverviewSamples {
			samples = append(samples, it)
		}
	}

	prompt := buildOverviewPrompt(len(idx.Items), described, histogram, samples)
	reply, err := d.Chatter.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: "You summarize a collection of indexed items in 2-3 sentences."},
		{Role: model.RoleUser, Content: prompt},
	}, 0.3, 400)
	if err != nil {
		tracker.Warn("overview synthesis failed")
		return
	}

	overview := strings.TrimSpace(reply)
	var resp overviewResponse
	if err := json.Unmarshal([]byte(overview), &resp); err == nil && resp.Overview != "" {
		overview = resp.Overview
	}
	if len(overview) > maxOverviewChars {
		overview = overview[:maxOverviewChars]
	}
	if overview == "" {
		tracker.Warn("overview synthesis returned empty text")
		return
	}

	mu.Lock()
	idx.CollectionOverview = &overview
	err = save(idx)
	mu.Unlock()
	if err != nil {
		tracker.Warn("failed to persist overview")
	}
}

func buildOverviewPrompt(total, described int, histogram map[string]int, samples []collection.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total items: %d\nDescribed items: %d\n\nCategory distribution:\n", total, described)

	cats := make([]string, 0, len(histogram))
	for c := range histogram {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return histogram[cats[i]] > histogram[cats[j]] })
	for _, c := range cats {
		fmt.Fprintf(&b, "- %s: %d\n", c, histogram[c])
	}

	b.WriteString("\nSample items:\n")
	for _, it := range samples {
		desc := ""
		if it.Description != nil {
			desc = *it.Description
		}
		cat := ""
		if it.Category != nil {
			cat = *it.Category
		}
		fmt.Fprintf(&b, "- %s: %s [%s]\n", it.ShortName, desc, cat)
	}

	b.WriteString("\nWrite a 2-3 sentence overview capturing the collection's focus, dominant categories, and any notable patterns. Respond with JSON: {\"overview\": \"...\"}")
	return b.String()
}
