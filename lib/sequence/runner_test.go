// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sequence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/remotedesk/lib/testutil"
)

func startRunner(t *testing.T) *Runner {
	t.Helper()
	runner := NewRunner(0)
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(finished)
	}()
	t.Cleanup(func() {
		cancel()
		<-finished
	})
	return runner
}

func TestRunnerExecutesTasksInOrder(t *testing.T) {
	t.Parallel()
	runner := startRunner(t)

	var order []int
	for index := 0; index < 50; index++ {
		if !runner.Post(func() { order = append(order, index) }) {
			t.Fatalf("Post(%d) returned false", index)
		}
	}
	if err := runner.Invoke(context.Background(), func() {}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if len(order) != 50 {
		t.Fatalf("ran %d tasks, want 50", len(order))
	}
	for index, value := range order {
		if value != index {
			t.Fatalf("order[%d] = %d, want %d", index, value, index)
		}
	}
}

func TestRunnerCheck(t *testing.T) {
	t.Parallel()
	runner := startRunner(t)

	if runner.OnSequence() {
		t.Error("OnSequence() = true outside a task")
	}

	var onSequence bool
	if err := runner.Invoke(context.Background(), func() {
		onSequence = runner.OnSequence()
		runner.Check()
	}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !onSequence {
		t.Error("OnSequence() = false inside a task")
	}

	defer func() {
		if recover() == nil {
			t.Error("Check() outside a task did not panic")
		}
	}()
	runner.Check()
}

func TestRunnerStop(t *testing.T) {
	t.Parallel()
	runner := startRunner(t)

	runner.Stop()
	runner.Stop()
	testutil.RequireClosed(t, runner.Done(), 5*time.Second, "runner stopped")

	if runner.Post(func() {}) {
		t.Error("Post after Stop returned true")
	}
	if err := runner.Invoke(context.Background(), func() {}); !errors.Is(err, ErrStopped) {
		t.Errorf("Invoke after Stop: got %v, want ErrStopped", err)
	}
}

func TestRunnerStopsOnContextCancel(t *testing.T) {
	t.Parallel()
	runner := NewRunner(4)
	ctx, cancel := context.WithCancel(context.Background())
	go runner.Run(ctx)

	cancel()
	testutil.RequireClosed(t, runner.Done(), 5*time.Second, "runner stopped after cancel")
}

func TestRunnerCheckFromForeignGoroutineDuringTask(t *testing.T) {
	t.Parallel()
	runner := startRunner(t)

	started := make(chan struct{})
	release := make(chan struct{})
	runner.Post(func() {
		close(started)
		<-release
	})
	defer close(release)
	testutil.RequireClosed(t, started, 5*time.Second, "waiting for blocking task")

	if runner.OnSequence() {
		t.Error("OnSequence() = true on a goroutine other than the runner's")
	}
	defer func() {
		if recover() == nil {
			t.Error("Check() from a foreign goroutine while a task runs did not panic")
		}
	}()
	runner.Check()
}

func TestRunnerCheckBeforeRun(t *testing.T) {
	t.Parallel()
	runner := NewRunner(1)
	if runner.OnSequence() {
		t.Error("OnSequence() = true before Run")
	}
}

func TestGoroutineIDDistinguishesGoroutines(t *testing.T) {
	t.Parallel()
	own := goroutineID()
	if own == 0 {
		t.Fatal("goroutineID() = 0")
	}
	if again := goroutineID(); again != own {
		t.Errorf("goroutineID() changed within one goroutine: %d then %d", own, again)
	}
	other := make(chan uint64)
	go func() { other <- goroutineID() }()
	if id := testutil.RequireReceive(t, other, 5*time.Second, "waiting for goroutine id"); id == own || id == 0 {
		t.Errorf("other goroutine id = %d, own = %d", id, own)
	}
}
