package cliapp

import (
	"context"

	"dporsched/internal/minimize"
	"dporsched/internal/model"
	"dporsched/internal/obslog"
	"dporsched/internal/runtimecontract"
	"dporsched/internal/scheduler"
	"dporsched/internal/simruntime"
)

// lazyInstrumenter breaks the construction cycle between scheduler.Engine
// (which needs a runtimecontract.Runtime) and simruntime.Runtime (which
// needs a runtimecontract.Instrumenter): it is handed to simruntime.New
// first, then pointed at the real Engine once constructed.
type lazyInstrumenter struct {
	target runtimecontract.Instrumenter
}

func (l *lazyInstrumenter) EventProduced(cell runtimecontract.Cell, env runtimecontract.Envelope, sender, receiver string, payload model.Payload) error {
	return l.target.EventProduced(cell, env, sender, receiver, payload)
}
func (l *lazyInstrumenter) NotifyQuiescence() error { return l.target.NotifyQuiescence() }
func (l *lazyInstrumenter) NotifyTimerScheduled(cell runtimecontract.Cell, env runtimecontract.Envelope, receiver string, marker model.TimerMarker) error {
	return l.target.NotifyTimerScheduled(cell, env, receiver, marker)
}
func (l *lazyInstrumenter) NotifyTimerCancelled(receiver, timerName string) bool {
	return l.target.NotifyTimerCancelled(receiver, timerName)
}

// newEngine builds a scheduler.Engine wired to a fresh simruntime.Runtime,
// resolving the construction cycle described above.
func newEngine(log *obslog.Logger, cfg scheduler.Config) (*scheduler.Engine, *simruntime.Runtime) {
	lazy := &lazyInstrumenter{}
	rt := simruntime.New(lazy)
	engine := scheduler.New(rt, log, cfg)
	lazy.target = engine
	return engine, rt
}

// SearchResult is what RunSearch reports back to a command once the DPOR
// search over a Scenario has exhausted its backtrack queue.
type SearchResult struct {
	Scenario    Scenario
	RunCounter  int
	FinalTrace  []model.Unique // first violating trace, or the last trace run if none violated
	GraphSize   int
	ViolationAt int // run index (0-based) where Violates first returned true, or -1
}

// RunSearch drives engine.Run to completion over s, rebuilding s's actor
// population on every interleaving (since RestartSystem tears actors
// down between runs), per SPEC_FULL.md §9's "no coroutine machinery"
// design note: the loop living here, in the caller, is exactly the
// "internal/cliapp's outer loop" the note describes.
func RunSearch(ctx context.Context, log *obslog.Logger, cfg scheduler.Config, s Scenario) (SearchResult, error) {
	engine, rt := newEngine(log, cfg)
	result := SearchResult{Scenario: s, ViolationAt: -1}

	for i := 0; !engine.Done(); i++ {
		s.Build(rt)
		trace, err := engine.Run(ctx, s.Externals)
		if err != nil {
			return result, err
		}
		if result.ViolationAt < 0 {
			result.FinalTrace = trace
			if s.Violates != nil && s.Violates(trace) {
				result.ViolationAt = i
			}
		}
	}

	result.RunCounter = engine.RunCounter()
	result.GraphSize = engine.Graph().Size()
	return result, nil
}

// demoFingerprint is the Fingerprint this module's engineOracle expects:
// it names the scenario whose Violates predicate decides reproduction,
// since a real invariant-derived fingerprint is an external collaborator
// per SPEC_FULL.md §1 ("the user-supplied invariant... reachable only
// through runtimecontract.Fingerprint").
type demoFingerprint struct {
	scenarioName string
}

func (d demoFingerprint) Equal(other runtimecontract.Fingerprint) bool {
	o, ok := other.(demoFingerprint)
	return ok && d.scenarioName == o.scenarioName
}

// engineOracle implements runtimecontract.Oracle for the minimize command:
// it replays s's externals against a fresh Engine+Runtime, seeded with the
// minimizer's candidate trace so replay-guided selection reconstructs
// exactly that candidate (per §4.1's "expectedNext" mechanism), and
// reports reproduced according to s.Violates.
type engineOracle struct {
	log *obslog.Logger
	cfg scheduler.Config
	s   Scenario
}

func (o *engineOracle) Test(ctx context.Context, externals []runtimecontract.ExternalEvent, candidate []model.Unique, fp runtimecontract.Fingerprint, stats *runtimecontract.Stats) ([]model.Unique, bool, error) {
	stats.Replays++
	engine, rt := newEngine(o.log, o.cfg)
	engine.SeedTrace(candidate)
	o.s.Build(rt)
	trace, err := engine.Run(ctx, externals)
	if err != nil {
		return nil, false, err
	}
	stats.InterleavingsRun++
	return trace, o.s.Violates(trace), nil
}

// Minimize shrinks the trace produced by a prior RunSearch (or the final
// trace of a failing interleaving) using internal/minimize.Clusterizer.
// Replays use whatever WildcardStrategy cfg already carries (cliapp's
// commands resolve it from internal/config.EngineConfig's
// ambiguity_strategy field via ResolveStrategy).
func Minimize(ctx context.Context, log *obslog.Logger, cfg scheduler.Config, s Scenario, original []model.Unique, aggressiveness minimize.Aggressiveness) ([]model.Unique, minimize.Stats, error) {
	oracle := &engineOracle{log: log, cfg: cfg, s: s}
	c := &minimize.Clusterizer{
		Oracle:         oracle,
		Aggressiveness: aggressiveness,
		Absent:         minimize.NewAbsentTracker(),
	}
	fp := demoFingerprint{scenarioName: s.Name}
	return c.Run(ctx, s.Externals, original, fp)
}

// ResolveStrategy maps an internal/config.EngineConfig.AmbiguityStrategy
// name to the concrete minimize.AmbiguityStrategy it selects. Validated
// names are exactly those internal/config.EngineConfig.Validate accepts.
func ResolveStrategy(name string) minimize.AmbiguityStrategy {
	switch name {
	case "BackTrackStrategy":
		return minimize.BackTrackStrategy{}
	case "FirstAndLastBacktrack":
		return minimize.FirstAndLastBacktrack{}
	case "LastOnlyStrategy":
		return minimize.LastOnlyStrategy{}
	default:
		return minimize.SrcDstFIFOOnly{}
	}
}
