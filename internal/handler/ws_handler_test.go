package handler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGradedGateWaitsForBind(t *testing.T) {
	gate := newGradedGate()
	var delivered atomic.Int32

	fired := make(chan struct{})
	go func() {
		// Simulates the ticker driving the session terminal before the
		// attach caller holds a handle.
		gate.fire()
		close(fired)
	}()

	select {
	case <-fired:
		t.Fatal("fire must block until the gate is bound")
	case <-time.After(20 * time.Millisecond):
	}

	gate.bind(func() { delivered.Add(1) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("fire did not complete after bind")
	}
	if got := delivered.Load(); got != 1 {
		t.Fatalf("expected exactly one delivery, got %d", got)
	}
}

func TestGradedGateDeliversAtMostOnce(t *testing.T) {
	gate := newGradedGate()
	var delivered atomic.Int32
	gate.bind(func() { delivered.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gate.fire()
		}()
	}
	wg.Wait()
	gate.fire()

	if got := delivered.Load(); got != 1 {
		t.Fatalf("expected exactly one delivery, got %d", got)
	}
}

func TestGradedGateNilBindReleasesWithoutDelivering(t *testing.T) {
	gate := newGradedGate()

	fired := make(chan struct{})
	go func() {
		gate.fire()
		close(fired)
	}()

	gate.bind(nil)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("fire must not deadlock when the attach failed")
	}
}
