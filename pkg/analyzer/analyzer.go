// Package analyzer implements the one-shot classification of an
// unstudied directory into a CollectionConfig: Inspect, Classify,
// Fallback, Emit.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/events"
	"github.com/go-collectivist/collectivist/pkg/model"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

// ConfigFileName is the artifact name inside a collection's state dir.
const ConfigFileName = "collection.yaml"

// maxSampledChildren bounds the breadth-limited Inspect pass.
const maxSampledChildren = 200

// maxInspectDepth bounds Inspect's recursion.
const maxInspectDepth = 2

// maxReadmeBytes is the cap on harvested README content.
const maxReadmeBytes = 2048

var mediaExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".mp3": true,
	".mp4": true, ".mov": true, ".flac": true, ".wav": true,
}

var documentExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".txt": true, ".md": true,
}

// Analyzer turns a directory root into a CollectionConfig.
type Analyzer struct {
	Registry *scanner.Registry
	Chatter  model.Chatter
	Bus      *events.Bus
}

// New constructs an Analyzer against the given scanner registry and
// model client.
func New(reg *scanner.Registry, chatter model.Chatter, bus *events.Bus) *Analyzer {
	return &Analyzer{Registry: reg, Chatter: chatter, Bus: bus}
}

// inspection is the breadth-limited summary fed to the classifier.
type inspection struct {
	TotalFiles    int
	TotalDirs     int
	Extensions    map[string]int
	TopLevelDirs  []string
	HasGit        bool
	ReadmeContent string
}

// Analyze runs Inspect -> Classify -> Fallback -> Emit against root,
// writing collection.yaml into stateDir. If forceType is non-empty it
// skips classification entirely. force controls whether an existing
// config file is overwritten.
func (a *Analyzer) Analyze(ctx context.Context, root, stateDir, forceType string, force bool) (*collection.Config, error) {
	configPath := filepath.Join(stateDir, ConfigFileName)
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return a.loadExisting(configPath)
		}
	}

	tracker := events.NewTracker(a.Bus)
	tracker.SetStage("analyze", 1)

	insp, err := a.inspect(root)
	if err != nil {
		return nil, &collection.AnalyzerError{Kind: collection.AnalyzerErrInspectionIO, Err: err}
	}

	var scannerName string
	if forceType != "" {
		scannerName = forceType
	} else {
		scannerName = a.classify(ctx, insp)
	}

	if _, ok := a.Registry.Get(scannerName); !ok {
		scannerName = a.fallback(insp)
	}

	s, ok := a.Registry.Get(scannerName)
	if !ok {
		return nil, &collection.AnalyzerError{
			Kind: collection.AnalyzerErrNoScannerForType,
			Err:  fmt.Errorf("no registered scanner named %q", scannerName),
		}
	}

	cfg := &collection.Config{
		CollectionType: s.Name(),
		Name:           filepath.Base(root),
		RootPath:       root,
		Categories:     s.DefaultCategories(),
		ExcludeHidden:  true,
		ScannerConfig:  map[string]any{},
		Schedule: collection.ScheduleConfig{
			Enabled: collection.ScheduleEnabled{Bool: false},
		},
	}

	if err := a.emit(configPath, cfg); err != nil {
		return nil, &collection.AnalyzerError{Kind: collection.AnalyzerErrEmitIO, Err: err}
	}

	tracker.CompleteStage(fmt.Sprintf("analyzed as %s", cfg.CollectionType))
	return cfg, nil
}

func (a *Analyzer) loadExisting(path string) (*collection.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &collection.AnalyzerError{Kind: collection.AnalyzerErrInspectionIO, Err: err}
	}
	var cfg collection.Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, &collection.ConfigError{Path: path, Err: err}
	}
	return &cfg, nil
}

func (a *Analyzer) inspect(root string) (inspection, error) {
	insp := inspection{Extensions: map[string]int{}}

	sampled := 0
	var walk func(dir string, depth int) error
	walk = func(dir string, depth int) error {
		if depth > maxInspectDepth || sampled >= maxSampledChildren {
			return nil
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if sampled >= maxSampledChildren {
				return nil
			}
			sampled++

			if e.IsDir() {
				insp.TotalDirs++
				if e.Name() == ".git" {
					insp.HasGit = true
				}
				if scanner.IsExcluded(e.Name(), true) {
					continue
				}
				if depth == 0 {
					insp.TopLevelDirs = append(insp.TopLevelDirs, e.Name())
				}
				if err := walk(filepath.Join(dir, e.Name()), depth+1); err != nil {
					return err
				}
				continue
			}

			insp.TotalFiles++
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if ext != "" {
				insp.Extensions[ext]++
			}

			if depth == 0 && insp.ReadmeContent == "" && isReadme(e.Name()) {
				insp.ReadmeContent = scanner.ReadHeadText(filepath.Join(dir, e.Name()), maxReadmeBytes)
			}
		}
		return nil
	}

	if err := walk(root, 0); err != nil {
		return insp, err
	}
	return insp, nil
}

func isReadme(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "readme")
}

type classifyResponse struct {
	CollectionType string `json:"collection_type"`
}

// classify asks the model to pick one registered scanner name. On any
// transport or parse failure it returns ""; the name it returns is not
// checked against the registry here. The caller applies the
// deterministic fallback when the result is empty or unregistered.
func (a *Analyzer) classify(ctx context.Context, insp inspection) string {
	if a.Chatter == nil {
		return ""
	}

	names := a.Registry.Names()
	prompt := buildClassifyPrompt(insp, names)

	reply, err := a.Chatter.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: "You classify directory trees into one of a fixed set of collection types. Respond with JSON only."},
		{Role: model.RoleUser, Content: prompt},
	}, 0.2, 200)
	if err != nil {
		return ""
	}

	var resp classifyResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &resp); err != nil {
		return ""
	}
	return resp.CollectionType
}

func buildClassifyPrompt(insp inspection, registeredNames []string) string {
	var b strings.Builder
	b.WriteString("Directory structure:\n")
	sort.Strings(insp.TopLevelDirs)
	b.WriteString(strings.Join(insp.TopLevelDirs, ", "))
	b.WriteString(fmt.Sprintf("\n\nFiles: %d, Directories: %d\n", insp.TotalFiles, insp.TotalDirs))

	b.WriteString("Extensions: ")
	for ext, count := range insp.Extensions {
		fmt.Fprintf(&b, "%s:%d ", ext, count)
	}
	b.WriteString("\n\n")

	if insp.ReadmeContent != "" {
		b.WriteString("README excerpt:\n")
		b.WriteString(insp.ReadmeContent)
		b.WriteString("\n\n")
	}

	b.WriteString("Registered collection types: ")
	b.WriteString(strings.Join(registeredNames, ", "))
	b.WriteString("\n\nRespond with JSON: {\"collection_type\": \"<one of the registered types>\"}")
	return b.String()
}

// fallback applies the deterministic priority order when the model is
// unavailable or names an unregistered scanner.
func (a *Analyzer) fallback(insp inspection) string {
	if insp.HasGit {
		if _, ok := a.Registry.Get("repositories"); ok {
			return "repositories"
		}
	}
	if hasAnyExtension(insp.Extensions, mediaExtensions) {
		if _, ok := a.Registry.Get("media"); ok {
			return "media"
		}
	}
	if hasAnyExtension(insp.Extensions, documentExtensions) {
		if _, ok := a.Registry.Get("documents"); ok {
			return "documents"
		}
	}
	return "fallback"
}

func hasAnyExtension(found map[string]int, wanted map[string]bool) bool {
	for ext := range found {
		if wanted[ext] {
			return true
		}
	}
	return false
}

func (a *Analyzer) emit(path string, cfg *collection.Config) error {
	if err := collection.ValidateConfig(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
