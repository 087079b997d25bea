package events

// Tracker is a compositional helper for emitting a coherent sequence of
// events for one pipeline stage: pending -> active -> complete|error.
// Callers set the stage once, report progress and messages as work
// proceeds, and mark completion — Tracker fills in stage/i/n on every
// event so call sites never repeat that bookkeeping.
type Tracker struct {
	bus   *Bus
	stage string
	total int
	cur   int
}

// NewTracker binds a Tracker to a bus; call SetStage before emitting.
func NewTracker(bus *Bus) *Tracker {
	return &Tracker{bus: bus}
}

// SetStage starts a new stage with the given total item count (0 if the
// stage isn't item-oriented) and emits a pending/info event.
func (t *Tracker) SetStage(stage string, total int) {
	t.stage = stage
	t.total = total
	t.cur = 0
	t.bus.Emit(Event{
		Stage:    stage,
		N:        total,
		Severity: SeverityInfo,
		Message:  "starting " + stage + " stage",
	})
}

// SetProgress advances the current item counter and emits an info event.
func (t *Tracker) SetProgress(i int, itemName string) {
	t.cur = i
	msg := "processing item"
	if itemName != "" {
		msg = "processing " + itemName
	}
	t.bus.Emit(Event{
		Stage:       t.stage,
		CurrentItem: itemName,
		I:           i,
		N:           t.total,
		Severity:    SeverityInfo,
		Message:     msg,
	})
}

func (t *Tracker) emit(sev Severity, msg string, metadata map[string]any) {
	t.bus.Emit(Event{
		Stage:    t.stage,
		I:        t.cur,
		N:        t.total,
		Severity: sev,
		Message:  msg,
		Metadata: metadata,
	})
}

// Info emits an informational message within the current stage.
func (t *Tracker) Info(msg string, metadata ...map[string]any) { t.emit(SeverityInfo, msg, merge(metadata)) }

// Warn emits a warning message within the current stage.
func (t *Tracker) Warn(msg string, metadata ...map[string]any) { t.emit(SeverityWarn, msg, merge(metadata)) }

// Error emits an error message within the current stage.
func (t *Tracker) Error(msg string, metadata ...map[string]any) { t.emit(SeverityError, msg, merge(metadata)) }

// Success emits a success message within the current stage.
func (t *Tracker) Success(msg string, metadata ...map[string]any) { t.emit(SeveritySuccess, msg, merge(metadata)) }

// CompleteStage emits the guaranteed i=n, pct=100, severity=success event
// that marks stage completion. If msg is empty, a default is used.
func (t *Tracker) CompleteStage(msg string) {
	if msg == "" {
		msg = "completed " + t.stage + " stage"
	}
	t.bus.Emit(Event{
		Stage:    t.stage,
		I:        t.total,
		N:        t.total,
		Pct:      100,
		Severity: SeveritySuccess,
		Message:  msg,
	})
}

func merge(metadatas []map[string]any) map[string]any {
	if len(metadatas) == 0 {
		return nil
	}
	return metadatas[0]
}
