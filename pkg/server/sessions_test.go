package server

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-shexform/pkg/render"
	"github.com/goliatone/go-shexform/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-shexform/pkg/session"
	"github.com/goliatone/go-shexform/pkg/testsupport"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFormSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New(testsupport.LoadSchema(t), session.WithRootURI(testsupport.RootURI))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestManager_IdleSessionsExpire(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(10*time.Minute, 0)
	m.now = clock.Now

	kept := m.Add(newFormSession(t))
	dropped := m.Add(newFormSession(t))

	clock.Advance(6 * time.Minute)
	if _, ok := m.Get(kept.ID); !ok {
		t.Fatalf("session expired too early")
	}
	clock.Advance(6 * time.Minute)

	if removed := m.Cleanup(); removed != 1 {
		t.Fatalf("expected one idle session removed, got %d", removed)
	}
	if _, ok := m.Get(dropped.ID); ok {
		t.Fatalf("idle session still reachable")
	}
	if diff := cmp.Diff([]string{kept.ID}, m.IDs()); diff != "" {
		t.Fatalf("held sessions mismatch (-want +got):\n%s", diff)
	}

	clock.Advance(11 * time.Minute)
	if _, ok := m.Get(kept.ID); ok {
		t.Fatalf("expected Get to drop the idle session")
	}
	if m.Len() != 0 {
		t.Fatalf("expected no sessions, got %d", m.Len())
	}
}

func TestManager_EvictsLeastRecentlyUsed(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(0, 2)
	m.now = clock.Now

	first := m.Add(newFormSession(t))
	clock.Advance(time.Second)
	second := m.Add(newFormSession(t))
	clock.Advance(time.Second)
	m.Get(first.ID)
	clock.Advance(time.Second)
	third := m.Add(newFormSession(t))

	if _, ok := m.Get(second.ID); ok {
		t.Fatalf("least recently used session should be evicted")
	}
	for _, id := range []string{first.ID, third.ID} {
		if _, ok := m.Get(id); !ok {
			t.Fatalf("session %s should be kept", id)
		}
	}
	if !m.Remove(first.ID) || m.Remove(first.ID) {
		t.Fatalf("remove should report existence once")
	}
}

func TestManager_RunStopsWithContext(t *testing.T) {
	m := NewManager(time.Millisecond, 0)
	m.Add(newFormSession(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	swept := make(chan int, 1)
	go func() {
		done <- m.Run(ctx, time.Millisecond, func(removed int) {
			select {
			case swept <- removed:
			default:
			}
		})
	}()

	select {
	case removed := <-swept:
		if removed != 1 {
			t.Fatalf("expected one session swept, got %d", removed)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sweeper did not run")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestParseSubmission(t *testing.T) {
	values := url.Values{
		render.FieldVersion:               {"4"},
		render.FieldShape:                 {" " + testsupport.StreetAddress + " "},
		components.FieldAction:            {"add root/list"},
		components.FieldCheckbox:          {"root/a", "root/b"},
		components.ChoosePrefix + "root/c": {"2"},
		"_csrf":                           {"token"},
		"root/d":                          {"first", "<i>last</i>"},
	}

	got, err := ParseSubmission(values, func(raw string) string { return "clean:" + raw })
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Submission{
		Version:    4,
		HasVersion: true,
		Shape:      testsupport.StreetAddress,
		Action:     "add root/list",
		Values:     map[string]string{"root/d": "clean:<i>last</i>"},
		Checkboxes: []string{"root/a", "root/b"},
		Choices:    map[string]string{"root/c": "2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}
}
