// Package cliapp wires the DPOR engine, the instrumented fake runtime, and
// the clock-cluster minimizer into runnable commands, the way the
// teacher's cmd/scriptweaver/main.go defers all engine logic to a small
// ParseInvocation/Execute split rather than inlining flag handling into
// main. Scenario is the demo-program abstraction this module needs in
// place of the teacher's task-graph JSON input: a fixed, named program
// (actor population plus external script) that Run and Minimize can
// replay deterministically any number of times.
package cliapp

import (
	"sort"

	"dporsched/internal/model"
	"dporsched/internal/runtimecontract"
	"dporsched/internal/simruntime"
)

// Scenario bundles everything needed to replay one demo program from a
// clean slate: Build spawns the actor population against a fresh runtime
// generation (called once per interleaving, since RestartSystem tears
// actors down between runs), Externals is the fixed high-level script, and
// Violates decides, given a completed trace, whether this run exhibits the
// condition the scenario is meant to demonstrate (used by the minimize
// command's demo fingerprint).
type Scenario struct {
	Name      string
	Describe  string
	Build     func(rt *simruntime.Runtime)
	Externals []runtimecontract.ExternalEvent
	Violates  func(trace []model.Unique) bool
}

var registry = map[string]Scenario{}

func register(s Scenario) {
	registry[s.Name] = s
}

// Lookup returns the named scenario, or ok=false if no such scenario is
// registered.
func Lookup(name string) (Scenario, bool) {
	s, ok := registry[name]
	return s, ok
}

// Names returns every registered scenario name, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func init() {
	register(pingPongScenario())
	register(fanOutRaceScenario())
	register(partitionDemoScenario())
}

// pingPongScenario is the simplest possible program: one external send to
// "ping", which replies to "pong", which replies nothing further. There is
// no race (a single chain of causally-ordered sends), so the search
// terminates after exactly one interleaving.
func pingPongScenario() Scenario {
	build := func(rt *simruntime.Runtime) {
		_, _ = rt.ActorOf(simruntime.Behavior(func(ctx *simruntime.Context, msg model.Payload) {
			_ = ctx.Send("pong", model.BytesPayload{Data: []byte("ping")})
		}), "ping")
		_, _ = rt.ActorOf(simruntime.Behavior(func(ctx *simruntime.Context, msg model.Payload) {}), "pong")
	}
	return Scenario{
		Name:     "ping-pong",
		Describe: "one causal chain, no races: ping replies to pong once",
		Build:    build,
		Externals: []runtimecontract.ExternalEvent{
			runtimecontract.SendEvent{Receiver: "ping", Msg: model.BytesPayload{Data: []byte("start")}},
		},
		Violates: func(trace []model.Unique) bool { return false },
	}
}

// fanOutRaceScenario has a single actor "Src" that reacts to one external
// trigger by sending two messages to "A" from within the same reaction;
// those two sends are co-enabled (same receiver, same epoch, no causal
// path between them) so the search explores both delivery orders before
// terminating. Violates reports true once the trace shows "m2" delivered
// before "m1", the reversed ordering DPOR is expected to discover.
func fanOutRaceScenario() Scenario {
	m1 := model.BytesPayload{Data: []byte("m1")}
	m2 := model.BytesPayload{Data: []byte("m2")}
	build := func(rt *simruntime.Runtime) {
		_, _ = rt.ActorOf(simruntime.Behavior(func(ctx *simruntime.Context, msg model.Payload) {}), "A")
		_, _ = rt.ActorOf(simruntime.Behavior(func(ctx *simruntime.Context, msg model.Payload) {
			_ = ctx.Send("A", m1)
			_ = ctx.Send("A", m2)
		}), "Src")
	}
	violates := func(trace []model.Unique) bool {
		sawM2 := false
		for _, u := range trace {
			m, ok := u.Event.(model.MsgEvent)
			if !ok {
				continue
			}
			if m.Payload.EquivalentTo(m2) {
				sawM2 = true
			}
			if m.Payload.EquivalentTo(m1) {
				return sawM2
			}
		}
		return false
	}
	return Scenario{
		Name:     "fan-out-race",
		Describe: "one sender fans out two messages to a shared receiver",
		Build:    build,
		Externals: []runtimecontract.ExternalEvent{
			runtimecontract.SendEvent{Receiver: "Src", Msg: model.BytesPayload{Data: []byte("trigger")}},
		},
		Violates: violates,
	}
}

// partitionDemoScenario splits "A" and "B" and then sends to "A", checking
// that the NodesUnreachable decomposition actually fires.
func partitionDemoScenario() Scenario {
	build := func(rt *simruntime.Runtime) {
		_, _ = rt.ActorOf(simruntime.Behavior(func(ctx *simruntime.Context, msg model.Payload) {}), "A")
		_, _ = rt.ActorOf(simruntime.Behavior(func(ctx *simruntime.Context, msg model.Payload) {}), "B")
	}
	violates := func(trace []model.Unique) bool {
		for _, u := range trace {
			if _, ok := u.Event.(model.NetworkPartition); ok {
				return true
			}
		}
		return false
	}
	return Scenario{
		Name:     "partition-demo",
		Describe: "A and B are partitioned, then A receives an ordinary send",
		Build:    build,
		Externals: []runtimecontract.ExternalEvent{
			runtimecontract.PartitionEvent{GroupA: []string{"A"}, GroupB: []string{"B"}},
			runtimecontract.SendEvent{Receiver: "A", Msg: model.BytesPayload{Data: []byte("hello")}},
		},
		Violates: violates,
	}
}
