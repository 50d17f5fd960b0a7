// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeNow(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	fake := Fake(start)

	if !fake.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", fake.Now(), start)
	}

	fake.Advance(90 * time.Second)
	if !fake.Now().Equal(start.Add(90 * time.Second)) {
		t.Errorf("Now() after Advance = %v, want %v", fake.Now(), start.Add(90*time.Second))
	}
}

func TestFakeAfter(t *testing.T) {
	fake := Fake(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	ch := fake.After(10 * time.Second)
	select {
	case <-ch:
		t.Fatal("After fired before Advance")
	default:
	}

	fake.Advance(10 * time.Second)
	select {
	case fired := <-ch:
		if !fired.Equal(time.Date(2026, 5, 1, 9, 0, 10, 0, time.UTC)) {
			t.Errorf("fired at %v, want 09:00:10", fired)
		}
	default:
		t.Fatal("After did not fire after Advance")
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	fake := Fake(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	select {
	case <-fake.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
}

func TestFakeSetBackwardsPanics(t *testing.T) {
	fake := Fake(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	defer func() {
		if recover() == nil {
			t.Fatal("Set backwards did not panic")
		}
	}()
	fake.Set(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))
}
