package ssq

import "testing"

func TestPublishLatestAlwaysReturnsNewest(t *testing.T) {
	q := New[int]()
	if got := q.Latest(); got != nil {
		t.Fatalf("Latest before any Publish = %v, want nil", got)
	}

	a, b := 1, 2
	q.Publish(&a)
	if got := q.Latest(); got != &a {
		t.Fatalf("Latest = %v, want %v", got, &a)
	}
	if got := q.Latest(); got != &a {
		t.Fatalf("second Latest call = %v, want %v (non-consuming)", got, &a)
	}

	q.Publish(&b)
	if got := q.Latest(); got != &b {
		t.Fatalf("Latest after second Publish = %v, want %v", got, &b)
	}
}

func TestPollOnlyReturnsUnseenValues(t *testing.T) {
	q := New[int]()
	if got := q.Poll(); got != nil {
		t.Fatalf("Poll before any Publish = %v, want nil", got)
	}

	a, b := 1, 2
	q.Publish(&a)
	if got := q.Poll(); got != &a {
		t.Fatalf("first Poll = %v, want %v", got, &a)
	}
	if got := q.Poll(); got != nil {
		t.Fatalf("second Poll with no new Publish = %v, want nil", got)
	}

	q.Publish(&b)
	if got := q.Poll(); got != &b {
		t.Fatalf("Poll after second Publish = %v, want %v", got, &b)
	}
	if got := q.Poll(); got != nil {
		t.Fatalf("Poll after consuming = %v, want nil", got)
	}
}

func TestPollAndLatestAreIndependent(t *testing.T) {
	q := New[int]()
	a := 1
	q.Publish(&a)

	if got := q.Poll(); got != &a {
		t.Fatalf("Poll = %v, want %v", got, &a)
	}
	// Latest is non-consuming: it must still report the same value
	// after Poll has already consumed it.
	if got := q.Latest(); got != &a {
		t.Fatalf("Latest after Poll consumed it = %v, want %v", got, &a)
	}
}
