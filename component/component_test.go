package component

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	events   *[]string
	block    bool
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(context.Context) error {
	f.record("start")
	return f.startErr
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	f.record("stop")
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.stopErr
}

func (f *fakeComponent) Health(context.Context) Health { return f.health }

func (f *fakeComponent) record(op string) {
	if f.events != nil {
		*f.events = append(*f.events, op+" "+f.name)
	}
}

func register(t *testing.T, r *Registry, cs ...Component) {
	t.Helper()
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			t.Fatalf("Register(%s): %v", c.Name(), err)
		}
	}
}

func TestRegisterRejectsDuplicatesAndNil(t *testing.T) {
	r := NewRegistry(nil)
	register(t, r, &fakeComponent{name: "annotator"})
	if err := r.Register(&fakeComponent{name: "annotator"}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if err := r.Register(nil); err == nil {
		t.Error("expected nil component to fail")
	}
	if got := r.Get("annotator"); got == nil || got.Name() != "annotator" {
		t.Errorf("Get returned %v", got)
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unknown name")
	}
}

func TestLifecycleOrder(t *testing.T) {
	var events []string
	r := NewRegistry(nil)
	register(t, r,
		&fakeComponent{name: "annotator", events: &events},
		&fakeComponent{name: "server", events: &events},
	)

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("second StartAll: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("second StopAll: %v", err)
	}

	want := []string{"start annotator", "start server", "stop server", "stop annotator"}
	if !slices.Equal(events, want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
}

func TestStartAllRollsBack(t *testing.T) {
	var events []string
	r := NewRegistry(nil)
	register(t, r,
		&fakeComponent{name: "annotator", events: &events},
		&fakeComponent{name: "server", events: &events, startErr: errors.New("address in use")},
		&fakeComponent{name: "late", events: &events},
	)

	err := r.StartAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "address in use") {
		t.Fatalf("expected start error, got %v", err)
	}
	want := []string{"start annotator", "start server", "stop annotator"}
	if !slices.Equal(events, want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	r := NewRegistry(nil)
	register(t, r,
		&fakeComponent{name: "annotator", stopErr: errors.New("stage exited")},
		&fakeComponent{name: "server", stopErr: errors.New("listener closed")},
	)
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	err := r.StopAll(context.Background())
	if err == nil {
		t.Fatal("expected stop errors")
	}
	for _, want := range []string{"stop annotator", "stage exited", "stop server", "listener closed"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestStopTimeoutBoundsEachComponent(t *testing.T) {
	r := NewRegistry(nil)
	r.SetStopTimeout(20 * time.Millisecond)
	r.SetStopTimeout(0)
	register(t, r, &fakeComponent{name: "annotator", block: true})
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	err := r.StopAll(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("stop timeout not applied")
	}
}

func TestHealthAll(t *testing.T) {
	r := NewRegistry(nil)
	register(t, r,
		&fakeComponent{name: "annotator", health: Health{Name: "annotator", Status: StatusDegraded, Message: "busy"}},
		&fakeComponent{name: "server", health: Health{Name: "server", Status: StatusUnhealthy}},
	)
	got := r.HealthAll(context.Background())
	if len(got) != 2 || got[0].Status != StatusDegraded || got[1].Status != StatusUnhealthy {
		t.Fatalf("unexpected health %+v", got)
	}
}

type describedServer struct {
	fakeComponent
}

func (d *describedServer) Describe() Description {
	return Description{Type: "server", Details: ":8080 h2c"}
}

func (d *describedServer) Routes() []Route {
	return []Route{{Method: "POST", Path: "/v1/annotate", Handler: "annotate"}}
}

func TestRoutesAndDescriptions(t *testing.T) {
	r := NewRegistry(nil)
	register(t, r, &fakeComponent{name: "annotator"}, &describedServer{fakeComponent{name: "server"}})

	if routes := r.Routes(); len(routes) != 1 || routes[0].Path != "/v1/annotate" {
		t.Fatalf("unexpected routes %+v", routes)
	}
	descs := r.Descriptions()
	if len(descs) != 1 || descs[0].Name != "server" {
		t.Fatalf("expected one description named after the component, got %+v", descs)
	}
	if all := r.All(); len(all) != 2 || all[0].Name() != "annotator" {
		t.Fatalf("unexpected All() %v", all)
	}
}
