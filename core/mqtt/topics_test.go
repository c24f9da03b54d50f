package mqtt

import (
	"errors"
	"testing"

	"github.com/kilianp07/liftsim/core/model"
)

func TestTopicsRoundTrip(t *testing.T) {
	tp := NewTopics("")
	if tp.Prefix != DefaultPrefix {
		t.Fatalf("expected default prefix, got %q", tp.Prefix)
	}
	got, err := tp.ParseButton(tp.Call(model.DirDown, 4))
	if err != nil {
		t.Fatalf("parse call: %v", err)
	}
	if !got.Same(model.CallRequest(model.DirDown, 4)) {
		t.Fatalf("unexpected request %v", got)
	}
	got, err = tp.ParseButton(tp.Panel("elevator2", 6))
	if err != nil {
		t.Fatalf("parse panel: %v", err)
	}
	if !got.Same(model.PanelRequest("elevator2", 6)) {
		t.Fatalf("unexpected request %v", got)
	}
}

func TestTopicsParseRejects(t *testing.T) {
	tp := NewTopics("/building/a/")
	bad := []string{
		"other/call/up/1",
		"building/a/call/sideways/1",
		"building/a/call/up/x",
		"building/a/car/elevator1/state",
		"building/a/car//panel/2",
		"building/a/requests",
	}
	for _, topic := range bad {
		if _, err := tp.ParseButton(topic); !errors.Is(err, ErrBadTopic) {
			t.Errorf("%s: expected ErrBadTopic, got %v", topic, err)
		}
	}
	if tp.State("elevator1") != "building/a/car/elevator1/state" {
		t.Fatalf("unexpected state topic %s", tp.State("elevator1"))
	}
}
