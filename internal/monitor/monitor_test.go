package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/muurk/co2viewer/internal/gauge"
)

type fakeStore struct {
	addr    string
	ok      bool
	saveErr error
	saved   []string
}

func (s *fakeStore) Load() (string, bool) { return s.addr, s.ok }

func (s *fakeStore) Save(addr string) error {
	s.saved = append(s.saved, addr)
	return s.saveErr
}

type fakeFetcher struct {
	mu    sync.Mutex
	raw   string
	err   error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, address string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, address)
	return f.raw, f.err
}

func runCycle(t *testing.T, m *Monitor, c Cycle) Result {
	t.Helper()
	res, ok := m.Complete(m.Run(context.Background(), c))
	if !ok {
		t.Fatalf("cycle %d was discarded", c.Seq)
	}
	return res
}

func TestNew_LoadsStoredAddress(t *testing.T) {
	m := New(&fakeStore{addr: "192.168.1.31", ok: true}, &fakeFetcher{})
	snap := m.Snapshot()
	if snap.Address != "192.168.1.31" {
		t.Errorf("Address = %q, want 192.168.1.31", snap.Address)
	}
	if snap.State != ShowForm {
		t.Errorf("initial state = %v, want form", snap.State)
	}
}

func TestStartup_FetchesWithEmptyAddress(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("no sensor address configured")}
	m := New(&fakeStore{}, fetcher)

	c, ok := m.Begin(TriggerStartup)
	if !ok {
		t.Fatal("startup cycle must always run")
	}
	res := runCycle(t, m, c)

	if len(fetcher.calls) != 1 || fetcher.calls[0] != "" {
		t.Errorf("fetch calls = %q, want one call with empty address", fetcher.calls)
	}
	if res.State != ShowForm || res.Err == nil {
		t.Errorf("result = %+v, want form with error", res)
	}
	if m.Snapshot().State != ShowForm {
		t.Error("failed startup should leave the form showing")
	}
}

func TestStartup_OnlyOnce(t *testing.T) {
	m := New(&fakeStore{}, &fakeFetcher{raw: "500"})
	c, _ := m.Begin(TriggerStartup)
	runCycle(t, m, c)

	if _, ok := m.Begin(TriggerStartup); ok {
		t.Error("second startup trigger should be ignored")
	}
}

func TestComplete_NumericShowsGauge(t *testing.T) {
	m := New(&fakeStore{addr: "sensor", ok: true}, &fakeFetcher{raw: "1200"})
	c, _ := m.Begin(TriggerStartup)
	res := runCycle(t, m, c)

	if res.State != ShowGauge {
		t.Fatalf("state = %v, want gauge", res.State)
	}
	if res.Reading == nil {
		t.Fatal("numeric reading must redraw the gauge")
	}
	if res.Reading.Level != gauge.LevelGreen {
		t.Errorf("level = %v, want green", res.Reading.Level)
	}
	if !strings.HasSuffix(res.Label, " ppm") || res.Label != "1200 ppm" {
		t.Errorf("label = %q, want \"1200 ppm\"", res.Label)
	}
}

func TestComplete_NonNumericShowsFormWithoutRedraw(t *testing.T) {
	fetcher := &fakeFetcher{raw: "900"}
	m := New(&fakeStore{addr: "sensor", ok: true}, fetcher)

	c, _ := m.Begin(TriggerStartup)
	runCycle(t, m, c)
	before := m.Snapshot().Reading

	fetcher.raw = "not-a-number"
	c, ok := m.Begin(TriggerTick)
	if !ok {
		t.Fatal("tick should run while the gauge is showing")
	}
	res := runCycle(t, m, c)

	if res.State != ShowForm {
		t.Errorf("state = %v, want form", res.State)
	}
	if res.Reading != nil {
		t.Error("non-numeric reading must not redraw the gauge")
	}
	if !errors.Is(res.Err, gauge.ErrNotANumber) {
		t.Errorf("err = %v, want ErrNotANumber", res.Err)
	}
	after := m.Snapshot().Reading
	if after == nil || after.PPM != before.PPM {
		t.Errorf("previous gauge reading changed: %+v -> %+v", before, after)
	}
}

func TestTick_SkippedWhileFormShown(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("unreachable")}
	m := New(&fakeStore{}, fetcher)

	if _, ok := m.Begin(TriggerTick); ok {
		t.Error("tick before startup should be skipped")
	}

	c, _ := m.Begin(TriggerStartup)
	runCycle(t, m, c)

	for i := 0; i < 3; i++ {
		if _, ok := m.Begin(TriggerTick); ok {
			t.Fatal("tick should be skipped while the form is showing")
		}
	}
	if _, ok := m.Begin(TriggerRefresh); ok {
		t.Error("refresh should be skipped while the form is showing")
	}
	if len(fetcher.calls) != 1 {
		t.Errorf("fetch calls = %d, want 1", len(fetcher.calls))
	}
}

func TestTick_NoOverlap(t *testing.T) {
	m := New(&fakeStore{addr: "sensor", ok: true}, &fakeFetcher{raw: "700"})
	c, _ := m.Begin(TriggerStartup)
	runCycle(t, m, c)

	first, ok := m.Begin(TriggerTick)
	if !ok {
		t.Fatal("first tick should run")
	}
	if _, ok := m.Begin(TriggerTick); ok {
		t.Error("second tick must not start while the first is in flight")
	}
	if _, ok := m.Begin(TriggerRefresh); ok {
		t.Error("refresh must not start while a tick is in flight")
	}

	runCycle(t, m, first)
	if _, ok := m.Begin(TriggerTick); !ok {
		t.Error("tick should run again once the previous cycle completed")
	}
}

func TestSubmit_PersistsAndFetchesOnce(t *testing.T) {
	store := &fakeStore{}
	fetcher := &fakeFetcher{err: errors.New("unreachable")}
	m := New(store, fetcher)

	c, _ := m.Begin(TriggerStartup)
	runCycle(t, m, c)

	fetcher.err = nil
	fetcher.raw = "1600"
	sub, ok := m.Submit("  10.0.0.7  ")
	if !ok {
		t.Fatal("submission should be accepted while the form is showing")
	}
	if !sub.Persist || sub.Address != "10.0.0.7" {
		t.Errorf("cycle = %+v, want persisting cycle for 10.0.0.7", sub)
	}

	res := runCycle(t, m, sub)

	if len(store.saved) != 1 || store.saved[0] != "10.0.0.7" {
		t.Errorf("saved = %q, want [10.0.0.7]", store.saved)
	}
	if len(fetcher.calls) != 2 || fetcher.calls[1] != "10.0.0.7" {
		t.Errorf("fetch calls = %q, want one fetch for the new address", fetcher.calls)
	}
	if res.State != ShowGauge || res.Reading.Level != gauge.LevelOrange {
		t.Errorf("result = %+v, want orange gauge", res)
	}
}

func TestSubmit_SaveFailureStillFetches(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("read-only file system")}
	fetcher := &fakeFetcher{raw: "450"}
	m := New(store, fetcher)

	sub, ok := m.Submit("sensor.local")
	if !ok {
		t.Fatal("submission should be accepted")
	}
	res := runCycle(t, m, sub)

	if len(fetcher.calls) != 1 {
		t.Errorf("fetch calls = %d, want 1", len(fetcher.calls))
	}
	if res.State != ShowGauge {
		t.Errorf("state = %v, want gauge", res.State)
	}
}

func TestSubmit_Rejected(t *testing.T) {
	m := New(&fakeStore{addr: "sensor", ok: true}, &fakeFetcher{raw: "800"})

	if _, ok := m.Submit("   "); ok {
		t.Error("blank submission should be rejected")
	}

	c, _ := m.Begin(TriggerStartup)
	runCycle(t, m, c)

	if _, ok := m.Submit("other"); ok {
		t.Error("submission should be rejected while the gauge is showing")
	}
	if got := m.Snapshot().Address; got != "sensor" {
		t.Errorf("address = %q, want unchanged", got)
	}
}

func TestSubmit_SupersedesInFlightCycle(t *testing.T) {
	fetcher := &fakeFetcher{}
	m := New(&fakeStore{addr: "old", ok: true}, fetcher)

	startup, _ := m.Begin(TriggerStartup)
	sub, ok := m.Submit("new")
	if !ok {
		t.Fatal("submission should be accepted while startup is in flight")
	}

	fetcher.raw = "999"
	newer := m.Run(context.Background(), sub)
	fetcher.raw = "3000"
	older := m.Run(context.Background(), startup)

	if _, ok := m.Complete(newer); !ok {
		t.Fatal("current cycle should be applied")
	}
	if _, ok := m.Complete(older); ok {
		t.Error("stale cycle should be discarded")
	}

	snap := m.Snapshot()
	if snap.Label != "999 ppm" || snap.Reading.Level != gauge.LevelBlue {
		t.Errorf("snapshot = %+v, want the submitted cycle's reading", snap)
	}
	if snap.InFlight {
		t.Error("no cycle should remain in flight")
	}
}

func TestUseAddress_DoesNotPersist(t *testing.T) {
	store := &fakeStore{addr: "stored", ok: true}
	fetcher := &fakeFetcher{raw: "600"}
	m := New(store, fetcher)
	m.UseAddress(" override:8080 ")

	c, _ := m.Begin(TriggerStartup)
	runCycle(t, m, c)

	if fetcher.calls[0] != "override:8080" {
		t.Errorf("fetched %q, want override:8080", fetcher.calls[0])
	}
	if len(store.saved) != 0 {
		t.Errorf("override was persisted: %q", store.saved)
	}
}

func TestStrings(t *testing.T) {
	if ShowGauge.String() != "gauge" || ShowForm.String() != "form" {
		t.Error("unexpected DisplayState names")
	}
	if TriggerTick.String() != "tick" || Trigger(42).String() != "unknown" {
		t.Error("unexpected Trigger names")
	}
}
