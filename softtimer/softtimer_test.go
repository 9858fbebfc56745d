package softtimer

import "testing"

func tick(w *Wheel, n int) {
	for i := 0; i < n; i++ {
		w.Tick()
	}
}

func TestOneShotFiresOnce(t *testing.T) {
	w := New(nil)

	fired := 0
	w.Register(GenericCountdown, 50, false, func() { fired++ })
	w.Start(GenericCountdown, true)

	tick(w, 4)
	if fired != 0 {
		t.Fatalf("fired %d times before expiry", fired)
	}
	tick(w, 1)
	if fired != 1 {
		t.Fatalf("fired %d times at expiry, want 1", fired)
	}
	if !w.IsExpired(GenericCountdown) {
		t.Error("timer should read expired")
	}

	tick(w, 20)
	if fired != 1 {
		t.Errorf("one-shot re-fired, count %d", fired)
	}
}

func TestPeriodicReloads(t *testing.T) {
	w := New(nil)

	fired := 0
	w.Register(DebugLED, 30, true, func() { fired++ })
	w.Start(DebugLED, true)

	tick(w, 9)
	if fired != 3 {
		t.Errorf("periodic fired %d times over 9 ticks, want 3", fired)
	}
}

func TestPauseAndResume(t *testing.T) {
	w := New(nil)

	fired := 0
	w.Register(PushButton, 20, true, func() { fired++ })
	w.Start(PushButton, true)

	tick(w, 1)
	w.Pause(PushButton, true)
	tick(w, 10)
	if fired != 0 {
		t.Fatalf("paused timer fired %d times", fired)
	}

	w.Pause(PushButton, false)
	tick(w, 1)
	if fired != 1 {
		t.Errorf("resumed timer fired %d times, want 1", fired)
	}
}

func TestStartReloads(t *testing.T) {
	w := New(nil)

	w.Register(GenericCountdown, 40, false, nil)
	w.Start(GenericCountdown, true)
	tick(w, 3)
	if w.IsExpired(GenericCountdown) {
		t.Fatal("expired too early")
	}

	// Restart reloads the full countdown.
	w.Start(GenericCountdown, true)
	tick(w, 3)
	if w.IsExpired(GenericCountdown) {
		t.Error("restarted timer kept stale countdown")
	}
	tick(w, 1)
	if !w.IsExpired(GenericCountdown) {
		t.Error("restarted timer never expired")
	}
}

func TestAperiodicHelper(t *testing.T) {
	w := New(nil)

	w.SetAperiodic(30)
	if w.AperiodicExpired() {
		t.Fatal("expired immediately")
	}
	tick(w, 3)
	if !w.AperiodicExpired() {
		t.Error("did not expire after timeout")
	}
}

func TestTimeLeft(t *testing.T) {
	w := New(nil)

	w.Register(GenericCountdown, 100, false, nil)
	w.Start(GenericCountdown, true)
	tick(w, 4)
	if got := w.TimeLeft(GenericCountdown); got != 60 {
		t.Errorf("TimeLeft = %d, want 60", got)
	}
}

func TestMaskBracketsUpdates(t *testing.T) {
	depth := 0
	maxDepth := 0
	w := New(func(disable bool) {
		if disable {
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		} else {
			depth--
		}
	})

	w.Register(DebugLED, 50, true, nil)
	w.StartAll(true)
	w.Pause(DebugLED, true)

	if depth != 0 {
		t.Errorf("unbalanced critical sections, depth %d", depth)
	}
	if maxDepth == 0 {
		t.Error("mask hook never invoked")
	}
}
