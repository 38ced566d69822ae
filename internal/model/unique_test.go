package model

import "testing"

func TestIDAllocator_StartsAtOne(t *testing.T) {
	a := NewIDAllocator()
	if got := a.Next(); got != 1 {
		t.Fatalf("expected first id 1, got %d", got)
	}
	if got := a.Next(); got != 2 {
		t.Fatalf("expected second id 2, got %d", got)
	}
}

func TestUnique_Equal_NoiseMsgEventsCompareByReceiver(t *testing.T) {
	a := Unique{Event: MsgEvent{Sender: "x", Receiver: "r1"}, ID: NoiseID}
	b := Unique{Event: MsgEvent{Sender: "y", Receiver: "r1"}, ID: NoiseID}
	c := Unique{Event: MsgEvent{Sender: "x", Receiver: "r2"}, ID: NoiseID}

	if !a.Equal(b) {
		t.Fatalf("expected noise MsgEvents with same receiver to compare equal")
	}
	if a.Equal(c) {
		t.Fatalf("expected noise MsgEvents with different receivers to compare unequal")
	}
}

func TestUnique_Equal_NonNoiseComparesByID(t *testing.T) {
	a := Unique{Event: MsgEvent{Receiver: "r"}, ID: 5}
	b := Unique{Event: MsgEvent{Receiver: "r"}, ID: 5}
	c := Unique{Event: MsgEvent{Receiver: "r"}, ID: 6}

	if !a.Equal(b) {
		t.Fatalf("expected same-id Uniques to compare equal")
	}
	if a.Equal(c) {
		t.Fatalf("expected different-id Uniques to compare unequal")
	}
}

func TestUnique_IsNoise(t *testing.T) {
	if !(Unique{Event: SpawnEvent{Name: "a"}, ID: 9}).IsNoise() {
		t.Fatalf("expected SpawnEvent to be noise regardless of id")
	}
	if !(Unique{Event: MsgEvent{Receiver: "r"}, ID: NoiseID}).IsNoise() {
		t.Fatalf("expected id=0 MsgEvent to be noise")
	}
	if RootUnique.IsNoise() {
		t.Fatalf("expected RootUnique to not be noise despite id=0")
	}
}
