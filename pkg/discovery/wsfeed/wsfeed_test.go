package wsfeed

import (
	"testing"

	"github.com/fwdaemon/devregistry/pkg/core"
)

type capturingSink struct {
	added   []string
	removed []string
}

func (s *capturingSink) Add(d core.Device)    { s.added = append(s.added, d.ID()) }
func (s *capturingSink) Remove(d core.Device) { s.removed = append(s.removed, d.ID()) }

func TestApplyAddedCreatesAndAdds(t *testing.T) {
	b := New("test", DefaultConfig())
	sink := &capturingSink{}

	b.apply(message{Kind: "added", DeviceID: "d1", GUIDs: []string{"g1"}}, sink)
	if len(sink.added) != 1 || sink.added[0] != "d1" {
		t.Fatalf("added = %v, want [d1]", sink.added)
	}
	if _, ok := b.seen["d1"]; !ok {
		t.Fatal("device not tracked after added message")
	}
}

func TestApplyRemovedForKnownDevice(t *testing.T) {
	b := New("test", DefaultConfig())
	sink := &capturingSink{}

	b.apply(message{Kind: "added", DeviceID: "d1"}, sink)
	b.apply(message{Kind: "removed", DeviceID: "d1"}, sink)

	if len(sink.removed) != 1 || sink.removed[0] != "d1" {
		t.Fatalf("removed = %v, want [d1]", sink.removed)
	}
	if _, ok := b.seen["d1"]; ok {
		t.Fatal("device still tracked after removed message")
	}
}

func TestApplyRemovedForUnknownDeviceIsNoOp(t *testing.T) {
	b := New("test", DefaultConfig())
	sink := &capturingSink{}

	b.apply(message{Kind: "removed", DeviceID: "never-seen"}, sink)
	if len(sink.removed) != 0 {
		t.Fatalf("removed = %v, want none", sink.removed)
	}
}
