package model

import "testing"

func TestTimerMarker_EquivalentTo_IgnoresToken(t *testing.T) {
	a := TimerMarker{Receiver: "r", TimerName: "tick", Repeating: true, Token: "abc"}
	b := TimerMarker{Receiver: "r", TimerName: "tick", Repeating: true, Token: "xyz"}
	if !a.EquivalentTo(b) {
		t.Fatalf("expected timer markers differing only in Token to be equivalent")
	}

	c := TimerMarker{Receiver: "r", TimerName: "other", Repeating: true, Token: "abc"}
	if a.EquivalentTo(c) {
		t.Fatalf("expected timer markers with different TimerName to be inequivalent")
	}
}

func TestIsTimerMarker(t *testing.T) {
	if !IsTimerMarker(TimerMarker{}) {
		t.Fatalf("expected TimerMarker to be recognized")
	}
	if IsTimerMarker(BytesPayload{}) {
		t.Fatalf("expected BytesPayload to not be recognized as a timer marker")
	}
}

func TestBytesPayload_EquivalentTo(t *testing.T) {
	a := BytesPayload{Data: []byte("hello")}
	b := BytesPayload{Data: []byte("hello")}
	c := BytesPayload{Data: []byte("world")}
	if !a.EquivalentTo(b) {
		t.Fatalf("expected identical byte payloads to be equivalent")
	}
	if a.EquivalentTo(c) {
		t.Fatalf("expected differing byte payloads to be inequivalent")
	}
}

func TestClockedBytesPayload_EquivalentTo_RequiresMatchingClock(t *testing.T) {
	a := ClockedBytesPayload{BytesPayload: BytesPayload{Data: []byte("x")}, Clock: 1, HasClock: true}
	b := ClockedBytesPayload{BytesPayload: BytesPayload{Data: []byte("x")}, Clock: 2, HasClock: true}
	if a.EquivalentTo(b) {
		t.Fatalf("expected differing clocks to make otherwise-identical payloads inequivalent")
	}
	if clk, ok := a.LogicalClock(); !ok || clk != 1 {
		t.Fatalf("expected LogicalClock to report (1, true), got (%d, %v)", clk, ok)
	}
}
