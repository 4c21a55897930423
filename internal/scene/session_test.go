package scene

import (
	"errors"
	"testing"

	"github.com/forma3d/formaview/internal/decoder"
	"github.com/forma3d/formaview/pkg/math"
)

func namedModel(t *testing.T, name string) *Model {
	t.Helper()
	raw := &decoder.RawScene{
		Nodes: []decoder.RawNode{
			boxNode(name, math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1}, nil),
		},
	}
	m := Normalize(raw)
	m.Name = name
	return m
}

func TestSessionInstall(t *testing.T) {
	s := NewSession()
	ticket := s.StartLoad()
	m := namedModel(t, "first")

	if err := s.Install(ticket, m); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if s.Model() != m {
		t.Error("installed model not current")
	}
}

func TestSessionStaleResultNeverInstalls(t *testing.T) {
	s := NewSession()

	// Load A starts, then load B starts before A resolves.
	ticketA := s.StartLoad()
	ticketB := s.StartLoad()

	modelB := namedModel(t, "B")
	if err := s.Install(ticketB, modelB); err != nil {
		t.Fatalf("install B: %v", err)
	}

	// A's late-arriving result must be discarded, not displayed.
	modelA := namedModel(t, "A")
	err := s.Install(ticketA, modelA)
	if !errors.Is(err, ErrStaleLoad) {
		t.Fatalf("expected ErrStaleLoad, got %v", err)
	}
	if !modelA.Disposed() {
		t.Error("stale result must be disposed")
	}
	if s.Model() != modelB {
		t.Error("B's displayed scene was overwritten by a stale result")
	}
	if modelB.Disposed() {
		t.Error("current model must stay alive")
	}

	if ticketA.Current() {
		t.Error("superseded ticket should not be current")
	}
}

func TestSessionReplaceDisposesPredecessor(t *testing.T) {
	s := NewSession()

	first := namedModel(t, "first")
	if err := s.Install(s.StartLoad(), first); err != nil {
		t.Fatal(err)
	}

	second := namedModel(t, "second")
	if err := s.Install(s.StartLoad(), second); err != nil {
		t.Fatal(err)
	}

	if !first.Disposed() {
		t.Error("replaced model must be disposed")
	}
	if second.Disposed() {
		t.Error("new model must not be disposed")
	}
}

func TestSessionClose(t *testing.T) {
	s := NewSession()
	ticket := s.StartLoad()
	m := namedModel(t, "m")
	if err := s.Install(ticket, m); err != nil {
		t.Fatal(err)
	}

	inFlight := s.StartLoad()
	s.Close()

	if s.Model() != nil {
		t.Error("closed session should hold no model")
	}
	if !m.Disposed() {
		t.Error("close must dispose the current model")
	}
	if inFlight.Current() {
		t.Error("close must invalidate in-flight loads")
	}

	s.Close() // second close is a no-op
}
