// Package organic implements the Organic Placer (C9): the "drop and
// process" workflow that notices new content inside a collection and
// either suggests or, above a confidence threshold, performs filesystem
// placement for it. The filesystem's own structure is the memory — no
// separate pattern store is kept between runs.
package organic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/events"
	"github.com/go-collectivist/collectivist/pkg/model"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

// DefaultLookback bounds how far back "new" content is detected.
const DefaultLookback = 24 * time.Hour

// maxContentSampleBytes bounds the content handed to the placement prompt.
const maxContentSampleBytes = 2000

// maxReadmeSampleBytes bounds a directory's README excerpt.
const maxReadmeSampleBytes = 1000

// stateDirName is always excluded from discovery.
const stateDirName = ".collection"

// Placement is the outcome of analyzing one new item.
type Placement struct {
	Category         string  `json:"category"`
	SuggestedFolder  string  `json:"suggested_folder"`
	Confidence       float64 `json:"confidence"`
	Reasoning        string  `json:"reasoning"`
	StructuralUsed   bool    `json:"-"`
}

// Result is the per-item outcome of ProcessNew.
type Result struct {
	ItemPath  string
	Placement Placement
	AutoFiled bool
	Err       error
}

// Processor runs organic placement analysis and, optionally, the moves.
type Processor struct {
	Registry *scanner.Registry
	Chatter  model.Chatter
	Bus      *events.Bus
}

// New constructs a Processor.
func New(reg *scanner.Registry, chatter model.Chatter, bus *events.Bus) *Processor {
	return &Processor{Registry: reg, Chatter: chatter, Bus: bus}
}

// DetectNew returns paths under root modified within lookback, skipping
// hidden entries and the .collection state directory. Go's filesystem
// APIs expose no portable creation time, so — matching the convention
// already used for item timestamps throughout this engine — modification
// time stands in for it.
func DetectNew(root string, lookback time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-lookback)
	var found []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}
		name := d.Name()
		if name == stateDirName || strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			found = append(found, path)
			if d.IsDir() {
				return filepath.SkipDir // the directory itself is the new item; don't descend
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// structuralPatterns is what the package doc calls "structure is the
// memory": a histogram of which top-level folder each category's items
// actually live in, plus a per-folder item count and naming style.
type structuralPatterns struct {
	categoryFolders map[string]map[string]int
	folderHierarchy map[string]folderInfo
}

type folderInfo struct {
	ItemCount   int
	NamingStyle string
}

func learnStructure(root string, idx *collection.Index) structuralPatterns {
	patterns := structuralPatterns{
		categoryFolders: make(map[string]map[string]int),
		folderHierarchy: make(map[string]folderInfo),
	}

	for _, it := range idx.Items {
		if it.Category == nil {
			continue
		}
		rel, err := filepath.Rel(root, it.Path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		parts := strings.Split(rel, string(filepath.Separator))
		folder := "root"
		if len(parts) > 0 && parts[0] != "." {
			folder = parts[0]
		}
		if patterns.categoryFolders[*it.Category] == nil {
			patterns.categoryFolders[*it.Category] = make(map[string]int)
		}
		patterns.categoryFolders[*it.Category][folder]++
	}

	entries, err := os.ReadDir(root)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			count := 0
			filepath.WalkDir(filepath.Join(root, e.Name()), func(_ string, d os.DirEntry, err error) error {
				if err == nil && !d.IsDir() {
					count++
				}
				return nil
			})
			patterns.folderHierarchy[e.Name()] = folderInfo{ItemCount: count, NamingStyle: namingStyle(e.Name())}
		}
	}

	return patterns
}

func namingStyle(name string) string {
	switch {
	case strings.Contains(name, "-"):
		return "kebab"
	case strings.Contains(name, "_"):
		return "snake"
	case name == strings.ToLower(name):
		return "lower"
	case name == strings.ToUpper(name):
		return "upper"
	default:
		return "mixed"
	}
}

// mostCommonFolder returns the folder most items of category have
// historically landed in, and whether any observation exists at all.
func (p structuralPatterns) mostCommonFolder(category string) (string, bool) {
	folders, ok := p.categoryFolders[category]
	if !ok || len(folders) == 0 {
		return "", false
	}
	names := make([]string, 0, len(folders))
	for f := range folders {
		names = append(names, f)
	}
	sort.Strings(names) // deterministic tie-break
	best := names[0]
	for _, f := range names[1:] {
		if folders[f] > folders[best] {
			best = f
		}
	}
	return best, true
}

func contentSample(itemPath string) string {
	info, err := os.Stat(itemPath)
	if err != nil {
		return filepath.Base(itemPath)
	}

	if info.IsDir() {
		var b strings.Builder
		fmt.Fprintf(&b, "Directory: %s\nContents:\n", filepath.Base(itemPath))
		entries, err := os.ReadDir(itemPath)
		if err == nil {
			for i, e := range entries {
				if i >= 10 {
					break
				}
				fmt.Fprintf(&b, "  - %s\n", e.Name())
			}
		}
		for _, readme := range []string{"README.md", "readme.md", "README", "package.json"} {
			text := scanner.ReadHeadText(filepath.Join(itemPath, readme), maxReadmeSampleBytes)
			if text != "" {
				fmt.Fprintf(&b, "\n%s:\n%s", readme, text)
				break
			}
		}
		return b.String()
	}

	ext := strings.ToLower(filepath.Ext(itemPath))
	switch ext {
	case ".txt", ".md", ".py", ".js", ".ts", ".json", ".go":
		return scanner.ReadHeadText(itemPath, maxContentSampleBytes)
	}
	return fmt.Sprintf("File: %s (%s)", filepath.Base(itemPath), ext)
}

type placementResponse struct {
	Category        string  `json:"category"`
	SuggestedFolder string  `json:"suggested_folder"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
}

// AnalyzePlacement suggests where itemPath should live within root,
// learning from idx's current structure and falling back to deterministic
// heuristics if the model call fails or returns something unusable.
func (p *Processor) AnalyzePlacement(ctx context.Context, itemPath, root string, cfg *collection.Config, idx *collection.Index) Placement {
	if _, ok := p.Registry.Get(cfg.CollectionType); !ok {
		return Placement{Category: cfg.MiscCategory(), Confidence: 0, Reasoning: "no scanner registered for collection type " + cfg.CollectionType}
	}

	patterns := learnStructure(root, idx)
	sample := contentSample(itemPath)

	prompt := buildPlacementPrompt(itemPath, cfg, sample, patterns)
	reply, err := p.Chatter.Chat(ctx, []model.Message{
		{Role: model.RoleUser, Content: prompt},
	}, 0.1, 300)
	if err != nil {
		return p.heuristicPlacement(itemPath, cfg, patterns)
	}

	var resp placementResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &resp); err != nil {
		return p.heuristicPlacement(itemPath, cfg, patterns)
	}

	category := resp.Category
	if !cfg.HasCategory(category) {
		category = cfg.MiscCategory()
	}

	folder := resp.SuggestedFolder
	if folder == "" {
		folder = category
	}
	used := false
	if common, ok := patterns.mostCommonFolder(category); ok {
		folder = common
		used = true
	}

	confidence := resp.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	reasoning := resp.Reasoning
	if reasoning == "" {
		reasoning = "model placement analysis"
	}

	return Placement{Category: category, SuggestedFolder: folder, Confidence: confidence, Reasoning: reasoning, StructuralUsed: used}
}

func buildPlacementPrompt(itemPath string, cfg *collection.Config, sample string, patterns structuralPatterns) string {
	var b strings.Builder
	b.WriteString("Analyze this new content and suggest optimal placement in the collection.\n")
	b.WriteString("Learn from the existing organizational structure - structure is the memory.\n\n")
	fmt.Fprintf(&b, "COLLECTION TYPE: %s\n", cfg.CollectionType)
	fmt.Fprintf(&b, "AVAILABLE CATEGORIES: %s\n\n", strings.Join(cfg.Categories, ", "))

	if len(patterns.categoryFolders) > 0 {
		b.WriteString("EXISTING ORGANIZATIONAL PATTERNS:\n")
		cats := make([]string, 0, len(patterns.categoryFolders))
		for c := range patterns.categoryFolders {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			if folder, ok := patterns.mostCommonFolder(c); ok {
				fmt.Fprintf(&b, "- %s items typically live in '%s/'\n", c, folder)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "NEW CONTENT:\nName: %s\n\nCONTENT SAMPLE:\n%s\n\n", filepath.Base(itemPath), sample)
	b.WriteString(`Respond with JSON: {"category": "...", "suggested_folder": "...", "confidence": 0.0, "reasoning": "..."}`)
	return b.String()
}

// heuristicPlacement is the deterministic fallback when the model is
// unavailable or returns something unparseable: a small keyword table,
// always reported at low confidence.
func (p *Processor) heuristicPlacement(itemPath string, cfg *collection.Config, patterns structuralPatterns) Placement {
	name := strings.ToLower(filepath.Base(itemPath))

	rules := []struct {
		keywords []string
		category string
	}{
		{[]string{"ai", "llm", "gpt", "agent"}, "ai_llm_agents"},
		{[]string{"terminal", "cli", "tui"}, "terminal_ui"},
		{[]string{"tool", "util"}, "dev_tools"},
	}

	for _, rule := range rules {
		if !cfg.HasCategory(rule.category) {
			continue
		}
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				folder, used := patterns.mostCommonFolder(rule.category)
				if !used {
					folder = rule.category
				}
				return Placement{
					Category: rule.category, SuggestedFolder: folder, Confidence: 0.4,
					Reasoning: "heuristic keyword match", StructuralUsed: used,
				}
			}
		}
	}

	sink := cfg.MiscCategory()
	return Placement{Category: sink, SuggestedFolder: sink, Confidence: 0.2, Reasoning: "no heuristic matched, defaulted to sink category"}
}

// ProcessNew detects new content under root, analyzes placement for
// each item, and — when autoFile is set and a placement meets
// confidenceThreshold — performs the move. Results are returned for
// every item regardless of whether it was auto-filed.
func (p *Processor) ProcessNew(ctx context.Context, root string, cfg *collection.Config, idx *collection.Index, autoFile bool, confidenceThreshold float64) ([]Result, error) {
	tracker := events.NewTracker(p.Bus)

	items, err := DetectNew(root, DefaultLookback)
	if err != nil {
		return nil, err
	}
	tracker.SetStage("organic", len(items))
	if len(items) == 0 {
		tracker.CompleteStage("no new content detected")
		return nil, nil
	}

	results := make([]Result, 0, len(items))
	autoFiled := 0

	for i, itemPath := range items {
		tracker.SetProgress(i+1, filepath.Base(itemPath))

		placement := p.AnalyzePlacement(ctx, itemPath, root, cfg, idx)
		res := Result{ItemPath: itemPath, Placement: placement}

		if autoFile && placement.Confidence >= confidenceThreshold {
			target := filepath.Join(root, placement.SuggestedFolder, filepath.Base(itemPath))
			if err := movePlaced(itemPath, target); err != nil {
				res.Err = &collection.PlacementError{Item: itemPath, Err: err}
				tracker.Warn(fmt.Sprintf("failed to file %s: %v", filepath.Base(itemPath), err))
			} else {
				res.AutoFiled = true
				autoFiled++
				tracker.Success(fmt.Sprintf("filed %s -> %s", filepath.Base(itemPath), placement.SuggestedFolder))
			}
		} else {
			pct := int(placement.Confidence * 100)
			tracker.Info(fmt.Sprintf("suggest %s -> %s (%d%% confidence)", filepath.Base(itemPath), placement.SuggestedFolder, pct))
		}

		results = append(results, res)
	}

	tracker.CompleteStage(fmt.Sprintf("processed %d items, auto-filed %d", len(results), autoFiled))
	return results, nil
}

// movePlaced performs the safety-guarded move: it refuses to overwrite
// an existing target and prefers the atomic, same-volume os.Rename,
// falling back to copy-then-remove only when the move crosses a device
// boundary.
func movePlaced(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("target already exists: %s", dst)
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	return copyThenRemove(src, dst)
}
