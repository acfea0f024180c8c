package batch

import (
	"sync"
	"testing"
)

func TestControlCancelIsSticky(t *testing.T) {
	t.Parallel()

	ctrl := NewControl()
	if ctrl.Canceled() {
		t.Fatal("new control must not be canceled")
	}

	ctrl.Cancel()
	ctrl.Cancel()
	if !ctrl.Canceled() {
		t.Fatal("expected canceled after Cancel")
	}
}

func TestControlPauseResume(t *testing.T) {
	t.Parallel()

	ctrl := NewControl()
	if ctrl.Paused() {
		t.Fatal("new control must not be paused")
	}

	ctrl.Pause()
	if !ctrl.Paused() {
		t.Fatal("expected paused after Pause")
	}

	ctrl.Resume()
	if ctrl.Paused() {
		t.Fatal("expected running after Resume")
	}
}

func TestControlNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var ctrl *Control
	ctrl.Cancel()
	ctrl.Pause()
	ctrl.Resume()
	if ctrl.Canceled() {
		t.Fatal("nil control must never report canceled")
	}
	if ctrl.Paused() {
		t.Fatal("nil control must never report paused")
	}
}

func TestControlConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctrl := NewControl()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ctrl.Pause()
				ctrl.Paused()
				ctrl.Resume()
				ctrl.Canceled()
			}
		}()
	}
	wg.Wait()

	ctrl.Cancel()
	if !ctrl.Canceled() {
		t.Fatal("expected canceled after concurrent churn")
	}
}
