// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

var (
	_ Clock = (*FakeClock)(nil)
	_ Clock = Real()
)

func TestFakeNowMovesOnlyOnAdvance(t *testing.T) {
	fake := Fake(epoch)
	if !fake.Now().Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", fake.Now(), epoch)
	}
	fake.Advance(90 * time.Minute)
	if want := epoch.Add(90 * time.Minute); !fake.Now().Equal(want) {
		t.Errorf("Now() after advance = %v, want %v", fake.Now(), want)
	}
}

func TestFakeAfter(t *testing.T) {
	tests := []struct {
		name      string
		wait      time.Duration
		advance   time.Duration
		wantFired bool
	}{
		{"zero fires at once", 0, 0, true},
		{"negative fires at once", -time.Second, 0, true},
		{"partial advance", 5 * time.Second, 4 * time.Second, false},
		{"exact deadline", 5 * time.Second, 5 * time.Second, true},
		{"past deadline", 5 * time.Second, time.Minute, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fake := Fake(epoch)
			channel := fake.After(test.wait)
			fake.Advance(test.advance)
			select {
			case <-channel:
				if !test.wantFired {
					t.Error("After fired before its deadline")
				}
			default:
				if test.wantFired {
					t.Error("After did not fire")
				}
			}
		})
	}
}

func TestFakeAfterFiresOnce(t *testing.T) {
	fake := Fake(epoch)
	channel := fake.After(time.Second)
	fake.Advance(time.Second)
	<-channel
	fake.Advance(time.Second)
	select {
	case <-channel:
		t.Error("After fired twice")
	default:
	}
	if pending := fake.PendingCount(); pending != 0 {
		t.Errorf("PendingCount() = %d, want 0", pending)
	}
}

func TestFakeAdvanceFiresOnlyDueWaiters(t *testing.T) {
	fake := Fake(epoch)
	short := fake.After(time.Second)
	long := fake.After(time.Hour)
	fake.Advance(time.Minute)

	select {
	case fired := <-short:
		if !fired.Equal(epoch.Add(time.Minute)) {
			t.Errorf("fired at %v, want advance target", fired)
		}
	default:
		t.Error("short waiter did not fire")
	}
	select {
	case <-long:
		t.Error("long waiter fired early")
	default:
	}
	if pending := fake.PendingCount(); pending != 1 {
		t.Errorf("PendingCount() = %d, want 1", pending)
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	fake := Fake(epoch)
	done := make(chan struct{})
	go func() {
		<-fake.After(3 * time.Second)
		close(done)
	}()

	fake.WaitForTimers(1)
	fake.Advance(3 * time.Second)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("goroutine did not wake after Advance")
	}
}

func TestFakeConcurrentAccess(t *testing.T) {
	fake := Fake(epoch)
	var group sync.WaitGroup
	for range 8 {
		group.Go(func() {
			for range 100 {
				fake.Now()
				fake.After(time.Millisecond)
			}
		})
	}
	group.Go(func() {
		for range 100 {
			fake.Advance(time.Millisecond)
		}
	})
	group.Wait()
	fake.Advance(time.Second)
	if pending := fake.PendingCount(); pending != 0 {
		t.Errorf("PendingCount() = %d after final advance, want 0", pending)
	}
}
