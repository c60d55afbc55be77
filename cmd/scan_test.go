package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carsond2001/map-scanner/internal/config"
	"github.com/carsond2001/map-scanner/internal/dispatch"
)

type fakeScanner struct {
	active      bool
	activations int
}

func (f *fakeScanner) Active() bool { return f.active }
func (f *fakeScanner) Activate()    { f.active = true; f.activations++ }
func (f *fakeScanner) Deactivate()  { f.active = false }

func TestApplyEnabled(t *testing.T) {
	cfg := config.DefaultConfig()
	maps, signs := &fakeScanner{}, &fakeScanner{}

	applyEnabled(cfg, maps, signs)
	if !maps.active || !signs.active {
		t.Fatalf("Expected both scanners to be activated")
	}

	applyEnabled(cfg, maps, signs)
	if maps.activations != 1 || signs.activations != 1 {
		t.Errorf("Expected a reload not to re-activate running scanners, got %d and %d", maps.activations, signs.activations)
	}

	cfg.Signs.Enabled = false
	applyEnabled(cfg, maps, signs)
	if !maps.active || signs.active {
		t.Errorf("Expected only the sign scanner to stop")
	}
}

func TestDrain(t *testing.T) {
	q := dispatch.New("test")
	ran := make(chan struct{})
	if err := q.Submit(func(ctx context.Context) { close(ran) }); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := drain(time.Second, q); err != nil {
		t.Fatalf("Expected clean drain, got %v", err)
	}
	select {
	case <-ran:
	default:
		t.Errorf("Expected queued task to run before drain returned")
	}

	slow := dispatch.New("slow")
	release := make(chan struct{})
	defer close(release)
	if err := slow.Submit(func(ctx context.Context) { <-release }); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	err := drain(50*time.Millisecond, slow)
	if err == nil || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}
}
