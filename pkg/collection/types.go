// Package collection defines the shared domain model for an intentional
// collection: its configuration, the items discovered within it, the
// persisted index, and the bookkeeping around a single pipeline run.
//
// These types are deliberately free of behavior beyond small invariant
// helpers — the components that read and write them (analyzer, scanhost,
// describer, render, organic, pipeline) live in their own packages.
package collection

import (
	"encoding/json"
	"time"
)

// ScheduleEnabled is a tri-state: off, on, or the "organic" workflow mode.
// It unmarshals from either a YAML bool or the string "organic".
type ScheduleEnabled struct {
	Bool    bool
	Organic bool
}

// UnmarshalYAML accepts `true`, `false`, or `"organic"`.
func (s *ScheduleEnabled) UnmarshalYAML(unmarshal func(any) error) error {
	var asBool bool
	if err := unmarshal(&asBool); err == nil {
		s.Bool = asBool
		s.Organic = false
		return nil
	}

	var asString string
	if err := unmarshal(&asString); err != nil {
		return err
	}
	if asString == "organic" {
		s.Organic = true
		s.Bool = true
		return nil
	}
	s.Bool = asString == "true"
	return nil
}

// MarshalYAML round-trips the tri-state back to bool or "organic".
func (s ScheduleEnabled) MarshalYAML() (any, error) {
	if s.Organic {
		return "organic", nil
	}
	return s.Bool, nil
}

// MarshalJSON mirrors MarshalYAML, so the same config value passed
// through ValidateConfig's JSON encoding matches the schema's
// anyOf[bool, const "organic"].
func (s ScheduleEnabled) MarshalJSON() ([]byte, error) {
	if s.Organic {
		return json.Marshal("organic")
	}
	return json.Marshal(s.Bool)
}

// UnmarshalJSON mirrors UnmarshalYAML.
func (s *ScheduleEnabled) UnmarshalJSON(data []byte) error {
	var asBool bool
	if err := json.Unmarshal(data, &asBool); err == nil {
		s.Bool = asBool
		s.Organic = false
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return err
	}
	if asString == "organic" {
		s.Organic = true
		s.Bool = true
		return nil
	}
	s.Bool = asString == "true"
	return nil
}

// ScheduleConfig controls unattended re-runs of the pipeline.
type ScheduleConfig struct {
	Enabled              ScheduleEnabled `yaml:"enabled" json:"enabled"`
	IntervalDays         int             `yaml:"interval_days,omitempty" json:"interval_days,omitempty"`
	Operations           []string        `yaml:"operations,omitempty" json:"operations,omitempty"`
	AutoFile             bool            `yaml:"auto_file,omitempty" json:"auto_file,omitempty"`
	ConfidenceThreshold  float64         `yaml:"confidence_threshold,omitempty" json:"confidence_threshold,omitempty"`
}

// Config is the per-collection schema document (collection.yaml). It is
// authored once by the Analyzer and is otherwise treated as human-owned:
// the engine never overwrites a value a human set, it only fills in what
// is missing on first creation.
type Config struct {
	Schema         string         `yaml:"$schema,omitempty" json:"$schema,omitempty"`
	CollectionType string         `yaml:"collection_type" json:"collection_type"`
	Status         string         `yaml:"status,omitempty" json:"status,omitempty"`
	Name           string         `yaml:"name" json:"name"`
	RootPath       string         `yaml:"path" json:"path"`
	Categories     []string       `yaml:"categories" json:"categories"`
	ExcludeHidden  bool           `yaml:"exclude_hidden" json:"exclude_hidden"`
	ScannerConfig  map[string]any `yaml:"scanner_config,omitempty" json:"scanner_config,omitempty"`
	Schedule       ScheduleConfig `yaml:"schedule,omitempty" json:"schedule,omitempty"`
}

// MiscCategory returns the sink category — the last declared category,
// which every unrecognized or unmatched description falls back to.
func (c *Config) MiscCategory() string {
	if len(c.Categories) == 0 {
		return ""
	}
	return c.Categories[len(c.Categories)-1]
}

// HasCategory reports whether name is one of the configured categories.
func (c *Config) HasCategory(name string) bool {
	for _, cat := range c.Categories {
		if cat == name {
			return true
		}
	}
	return false
}

// Item is one indexed unit — a file or a directory — within a collection.
//
// Path is the primary key within a collection: it must be absolute and
// canonical (symlinks resolved) so that a rescan can match prior entries
// by identity rather than by display name.
type Item struct {
	Path       string         `yaml:"path" json:"path"`
	ShortName  string         `yaml:"short_name" json:"short_name"`
	Type       string         `yaml:"type" json:"type"`
	SizeBytes  int64          `yaml:"size_bytes" json:"size_bytes"`
	Created    time.Time      `yaml:"created" json:"created"`
	Modified   time.Time      `yaml:"modified" json:"modified"`
	Accessed   time.Time      `yaml:"accessed" json:"accessed"`
	Description *string       `yaml:"description" json:"description"`
	Category   *string        `yaml:"category" json:"category"`
	Metadata   map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// NeedsDescription reports whether the item has not yet been described.
func (it *Item) NeedsDescription() bool {
	return it.Description == nil || *it.Description == ""
}

// PreserveEntry is the subset of an item's fields that a rescan must not
// clobber: the human-or-model-assigned description and category.
type PreserveEntry struct {
	Description *string
	Category    *string
}

// PreserveMap is the path -> {description, category} table handed to a
// scanner so hand-edited annotations survive a rescan.
type PreserveMap map[string]PreserveEntry

// Index is the persisted artifact for a collection: every known item plus
// an optional overview paragraph summarizing the whole collection.
type Index struct {
	CollectionOverview *string `yaml:"collection_overview" json:"collection_overview"`
	Items              []Item  `yaml:"items" json:"items"`
}

// ItemByPath returns a pointer to the item with the given path, or nil.
func (idx *Index) ItemByPath(path string) *Item {
	for i := range idx.Items {
		if idx.Items[i].Path == path {
			return &idx.Items[i]
		}
	}
	return nil
}

// PreserveMap builds the path -> {description, category} table from the
// current index, for handoff to a scanner ahead of a rescan.
func (idx *Index) PreserveMap() PreserveMap {
	pm := make(PreserveMap, len(idx.Items))
	for _, it := range idx.Items {
		if it.Description == nil && it.Category == nil {
			continue
		}
		pm[it.Path] = PreserveEntry{Description: it.Description, Category: it.Category}
	}
	return pm
}

// RunState is the lifecycle state of a PipelineRun.
type RunState string

const (
	RunStateQueued    RunState = "queued"
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

// StageMask records which stages a run will execute.
type StageMask struct {
	Organic  bool
	Analyze  bool
	Scan     bool
	Describe bool
	Render   bool
}

// Run is a single invocation of the orchestrator.
type Run struct {
	RunID      string    `json:"run_id"`
	Mode       string    `json:"mode"`
	Stages     StageMask `json:"stages"`
	State      RunState  `json:"state"`
	QueuedAt   time.Time `json:"queued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}
