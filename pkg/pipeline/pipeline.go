// Package pipeline implements the Pipeline Orchestrator (C10): a single
// state machine that drives OrganicPlace -> Analyze -> Scan -> Describe ->
// Render in strict order, constrained by a workflow mode, and records each
// invocation as a collection.Run.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/go-collectivist/collectivist/pkg/analyzer"
	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/describer"
	"github.com/go-collectivist/collectivist/pkg/events"
	"github.com/go-collectivist/collectivist/pkg/index"
	"github.com/go-collectivist/collectivist/pkg/model"
	"github.com/go-collectivist/collectivist/pkg/organic"
	"github.com/go-collectivist/collectivist/pkg/render"
	"github.com/go-collectivist/collectivist/pkg/runregistry"
	"github.com/go-collectivist/collectivist/pkg/scanhost"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

// StateDirName is the collection's engine-owned state directory, holding
// collection.yaml, index.yaml, and rendered artifacts.
const StateDirName = ".collection"

// Mode selects the workflow that constrains which stages run.
type Mode string

const (
	ModeManual    Mode = "manual"
	ModeScheduled Mode = "scheduled"
	ModeOrganic   Mode = "organic"
)

// Options is a single invocation's request: which stages to attempt (before
// the mode's constraints apply) and any per-run overrides.
type Options struct {
	Mode Mode

	SkipOrganic  bool
	SkipAnalyze  bool
	SkipScan     bool
	SkipDescribe bool
	SkipRender   bool

	ForceType string
	Workers   int

	// RunID, if non-empty, is used instead of a freshly generated one.
	// The network surface uses this to mint a run_id before the run
	// starts, so a client polling GET /runs/{run_id} immediately has
	// something to poll.
	RunID string
}

// resolve applies the workflow mode's constraints over the requested skip
// flags, per the documented mode table.
func (o Options) resolve() (collection.StageMask, bool) {
	switch o.Mode {
	case ModeScheduled:
		return collection.StageMask{
			Organic:  false,
			Analyze:  !o.SkipAnalyze,
			Scan:     !o.SkipScan,
			Describe: !o.SkipDescribe,
			Render:   !o.SkipRender,
		}, false
	case ModeOrganic:
		return collection.StageMask{Organic: true, Analyze: true, Scan: true, Describe: true, Render: true}, true
	default:
		return collection.StageMask{
			Organic:  !o.SkipOrganic,
			Analyze:  !o.SkipAnalyze,
			Scan:     !o.SkipScan,
			Describe: !o.SkipDescribe,
			Render:   !o.SkipRender,
		}, true
	}
}

// StageError reports which stage failed and why, the shape the CLI and
// server surfaces use to report an uncaught failure.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Orchestrator wires together every stage package and owns run bookkeeping.
// Log receives one structured entry when a run starts, when it completes,
// and when it fails (naming the failed stage), alongside (not instead of) the progress events written to Bus: the bus
// is for consumers that want granular, item-level progress, the logger is
// for whatever aggregates or ships process-level logs.
type Orchestrator struct {
	Registry *scanner.Registry
	Chatter  model.Chatter
	Bus      *events.Bus
	Runs     *runregistry.Store
	Log      *zap.Logger
}

// New constructs an Orchestrator. runs may be nil to skip run persistence.
// The logger defaults to a no-op; call WithLogger to attach a real one.
func New(reg *scanner.Registry, chatter model.Chatter, bus *events.Bus, runs *runregistry.Store) *Orchestrator {
	return &Orchestrator{Registry: reg, Chatter: chatter, Bus: bus, Runs: runs, Log: zap.NewNop()}
}

// WithLogger attaches log as the Orchestrator's structured logger and
// returns o, for chaining off New.
func (o *Orchestrator) WithLogger(log *zap.Logger) *Orchestrator {
	if log != nil {
		o.Log = log
	}
	return o
}

func stateDir(root string) string     { return filepath.Join(root, StateDirName) }
func configPath(root string) string   { return filepath.Join(stateDir(root), analyzer.ConfigFileName) }
func indexPath(root string) string    { return filepath.Join(stateDir(root), index.FileName) }
func markdownPath(root string) string { return filepath.Join(stateDir(root), "collection.md") }
func jsonPath(root string) string     { return filepath.Join(stateDir(root), "collection.json") }
func htmlPath(root string) string     { return filepath.Join(stateDir(root), "collection.html") }
func nushellPath(root string) string  { return filepath.Join(stateDir(root), "collection.nu") }

// Run executes the staged pipeline against root per opts, returning the
// recorded Run. A non-nil error is always also reflected in the returned
// Run's State/LastError when the Run was constructed successfully.
func (o *Orchestrator) Run(ctx context.Context, root string, opts Options) (*collection.Run, error) {
	mask, autoFileAllowed := opts.resolve()

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	run := &collection.Run{
		RunID:    runID,
		Mode:     string(opts.Mode),
		Stages:   mask,
		State:    collection.RunStateRunning,
		QueuedAt: time.Now().UTC(),
	}
	started := time.Now().UTC()
	run.StartedAt = &started
	o.saveRun(run)
	o.Log.Info("run started", zap.String("run_id", run.RunID), zap.String("mode", string(opts.Mode)), zap.String("root", root))

	tracker := events.NewTracker(o.Bus)

	cfg, idx, err := o.loadState(root)
	if err != nil {
		return o.fail(run, "load", err)
	}

	if mask.Organic && cfg != nil {
		autoFile := autoFileAllowed && cfg.Schedule.AutoFile
		if _, err := organic.New(o.Registry, o.Chatter, o.Bus).ProcessNew(ctx, root, cfg, idx, autoFile, cfg.Schedule.ConfidenceThreshold); err != nil {
			return o.fail(run, "organic", err)
		}
	}

	if mask.Analyze {
		cfg, err = analyzer.New(o.Registry, o.Chatter, o.Bus).Analyze(ctx, root, stateDir(root), opts.ForceType, opts.ForceType != "")
		if err != nil {
			return o.fail(run, "analyze", err)
		}
	}
	if cfg == nil {
		return o.fail(run, "analyze", fmt.Errorf("no collection config at %s; run analyze first", configPath(root)))
	}

	s, ok := o.Registry.Get(cfg.CollectionType)
	if !ok {
		return o.fail(run, "scan", fmt.Errorf("%w: %q", collection.ErrUnresolvedScanner, cfg.CollectionType))
	}

	if mask.Scan {
		idx, err = scanhost.New(o.Bus).Run(s, cfg, root, indexPath(root))
		if err != nil {
			return o.fail(run, "scan", err)
		}
	}

	if mask.Describe {
		if err := o.Chatter.Probe(ctx); err != nil {
			return o.fail(run, "describe", fmt.Errorf("model unreachable; check %s: %w", configPath(root), err))
		}
		save := func(cur *collection.Index) error { return index.Save(indexPath(root), cur) }
		if err := describer.New(o.Chatter, o.Bus).Run(ctx, s, cfg, idx, opts.Workers, save); err != nil {
			return o.fail(run, "describe", err)
		}
	}

	if mask.Render {
		if err := renderStage(idx, cfg, root); err != nil {
			return o.fail(run, "render", err)
		}
	}

	tracker.SetStage("pipeline", 0)
	tracker.CompleteStage(fmt.Sprintf("run %s completed", run.RunID))

	run.State = collection.RunStateCompleted
	ended := time.Now().UTC()
	run.EndedAt = &ended
	o.saveRun(run)
	o.Log.Info("run completed", zap.String("run_id", run.RunID), zap.Duration("elapsed", ended.Sub(started)))
	return run, nil
}

func (o *Orchestrator) loadState(root string) (*collection.Config, *collection.Index, error) {
	cfg, err := loadConfigIfPresent(configPath(root))
	if err != nil {
		return nil, nil, err
	}
	idx, err := index.Load(indexPath(root))
	if err != nil {
		return nil, nil, err
	}
	return cfg, idx, nil
}

func (o *Orchestrator) fail(run *collection.Run, stage string, err error) (*collection.Run, error) {
	stageErr := &StageError{Stage: stage, Err: err}
	o.Bus.Emit(events.Event{
		Stage:    stage,
		Severity: events.SeverityError,
		Message:  stageErr.Error(),
	})

	run.State = collection.RunStateFailed
	run.LastError = stageErr.Error()
	ended := time.Now().UTC()
	run.EndedAt = &ended
	o.saveRun(run)
	o.Log.Error("run failed", zap.String("run_id", run.RunID), zap.String("stage", stage), zap.Error(err))
	return run, stageErr
}

func (o *Orchestrator) saveRun(run *collection.Run) {
	if o.Runs == nil {
		return
	}
	_ = o.Runs.Write(run)
}

func renderStage(idx *collection.Index, cfg *collection.Config, root string) error {
	if err := writeFile(markdownPath(root), render.Markdown(idx, cfg)); err != nil {
		return err
	}
	j, err := render.JSON(idx, cfg)
	if err != nil {
		return err
	}
	if err := writeFile(jsonPath(root), string(j)); err != nil {
		return err
	}
	h, err := render.HTML(idx, cfg)
	if err != nil {
		return err
	}
	if err := writeFile(htmlPath(root), h); err != nil {
		return err
	}
	return writeFile(nushellPath(root), render.Nushell(idx, cfg))
}
