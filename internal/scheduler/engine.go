// Package scheduler implements the DPOR driver and state machine described
// in SPEC_FULL.md §4.1-4.2: Engine is the sole decision-maker that the
// instrumented runtime calls back into (it implements
// internal/runtimecontract.Instrumenter) and that in turn drives the
// runtime via internal/runtimecontract.Runtime.
package scheduler

import (
	"fmt"

	"dporsched/internal/backtrack"
	"dporsched/internal/depgraph"
	"dporsched/internal/model"
	"dporsched/internal/obslog"
	"dporsched/internal/pending"
	"dporsched/internal/runtimecontract"
)

// Engine owns the dependency graph, the pending-event lanes, the backtrack
// queue, and the explored tracker, exactly once, per SPEC_FULL.md §9's
// "no process-wide singletons" note. It is not safe for concurrent callback
// delivery; the embedding runtime must serialize calls into it.
type Engine struct {
	log *obslog.Logger
	rt  runtimecontract.Runtime

	graph     *depgraph.Graph
	pend      *pending.Map
	backtrack *backtrack.Queue
	explored  *backtrack.Explored
	ids       *model.IDAllocator

	maxDepth         int
	divergencePolicy DivergencePolicy
	absent           AbsentRecorder   // nil unless DivergenceFeedsAbsentTracking
	strategy         WildcardStrategy // nil disables wildcard replay fallback

	// per-run state, reset by resetRun between interleavings.
	currentTrace  []model.Unique
	nextTrace     []model.Unique // replay target for this run, nil once exhausted
	nextCursor    int            // index into nextTrace of the next expected Unique
	parentCursor  model.Unique
	currentDepth  int

	awaitingQuiescence     bool
	currentQuiescentPeriod uint32
	nextQuiescentPeriod    uint32
	epochCounter           uint32
	pendingQuiescenceMark  model.Unique

	partitionMap map[string]map[string]bool

	runCounter int

	done      bool
	lastTrace []model.Unique
}

// Config bundles the constructor knobs an Engine needs from
// internal/config.EngineConfig, kept local to avoid an import cycle
// (internal/config itself imports internal/scheduler for DivergencePolicy).
type Config struct {
	MaxDepth         int
	DivergencePolicy DivergencePolicy
	AbsentRecorder   AbsentRecorder
	WildcardStrategy WildcardStrategy
}

// New constructs an Engine bound to rt, ready to run its first
// interleaving (the empty trace).
func New(rt runtimecontract.Runtime, log *obslog.Logger, cfg Config) *Engine {
	if log == nil {
		log = obslog.Nop()
	}
	e := &Engine{
		log:              log,
		rt:               rt,
		graph:            depgraph.New(),
		backtrack:        backtrack.New(),
		explored:         backtrack.NewExplored(),
		ids:              model.NewIDAllocator(),
		maxDepth:         cfg.MaxDepth,
		divergencePolicy: cfg.DivergencePolicy,
		absent:           cfg.AbsentRecorder,
		strategy:         cfg.WildcardStrategy,
		partitionMap:     make(map[string]map[string]bool),
	}
	e.resetRun()
	return e
}

// resetRun clears the per-run state PendingEvents, CurrentTrace,
// awaitingQuiescence and the parent cursor reset between runs, per §8's
// "deterministic restart" property -- but never touches DependencyGraph or
// ExploredTracker, which persist across the whole search.
func (e *Engine) resetRun() {
	e.pend = pending.New()
	e.currentTrace = nil
	e.nextCursor = 0
	e.parentCursor = model.RootUnique
	e.currentDepth = 0
	e.awaitingQuiescence = false
}

// Done reports whether the search has terminated (dpor.Analyze found no
// further backtrack points).
func (e *Engine) Done() bool { return e.done }

// CurrentTrace returns the trace built so far in the current run, for
// tests and tracelog persistence. The slice is owned by the caller.
func (e *Engine) CurrentTrace() []model.Unique {
	out := make([]model.Unique, len(e.currentTrace))
	copy(out, e.currentTrace)
	return out
}

// Graph exposes the dependency graph read-only, for DOT export and tests.
func (e *Engine) Graph() *depgraph.Graph { return e.graph }

// RunCounter returns the number of times RestartSystem has been invoked.
func (e *Engine) RunCounter() int { return e.runCounter }

// SeedTrace installs an explicit replay target for the first run, used
// when re-entering a search from a persisted tracelog.Log rather than
// starting from the empty trace (e.g. the minimizer's Oracle.Test).
func (e *Engine) SeedTrace(trace []model.Unique) {
	e.nextTrace = trace
	e.nextCursor = 0
}

func (e *Engine) partitioned(sender, receiver string) bool {
	blocked, ok := e.partitionMap[sender]
	return ok && blocked[receiver]
}

func (e *Engine) addPartition(a, b []string) {
	for _, x := range a {
		for _, y := range b {
			e.linkPartition(x, y)
			e.linkPartition(y, x)
		}
	}
}

func (e *Engine) linkPartition(from, to string) {
	set, ok := e.partitionMap[from]
	if !ok {
		set = make(map[string]bool)
		e.partitionMap[from] = set
	}
	set[to] = true
}

func (e *Engine) expectedNext() (model.Unique, bool) {
	for e.nextCursor < len(e.nextTrace) {
		u := e.nextTrace[e.nextCursor]
		if u.IsNoise() {
			e.nextCursor++
			continue
		}
		return u, true
	}
	return model.Unique{}, false
}

func (e *Engine) advanceExpected() { e.nextCursor++ }

func (e *Engine) fmtEventSummary(u model.Unique) string {
	if m, ok := u.Event.(model.MsgEvent); ok {
		return fmt.Sprintf("%s->%s#%d", m.Sender, m.Receiver, u.ID)
	}
	return fmt.Sprintf("%s#%d", u.Event.Kind(), u.ID)
}
