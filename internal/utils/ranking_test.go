package utils

import (
	"math"
	"testing"
)

func TestHotnessFormula(t *testing.T) {
	created := int64(1_700_000_000)
	got := Hotness(100, created)
	want := 2 + float64(created)/45000
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("Expected %f, got %f", want, got)
	}
}

func TestHotnessFloorsNonPositiveVotes(t *testing.T) {
	created := int64(1_700_000_000)
	base := Hotness(1, created)
	for _, votes := range []int{0, -1, -50} {
		if got := Hotness(votes, created); got != base {
			t.Errorf("votes=%d: expected %f, got %f", votes, base, got)
		}
	}
}

func TestHotnessNonDecreasingInVotes(t *testing.T) {
	created := int64(1_700_000_000)
	prev := Hotness(-10, created)
	for votes := -9; votes <= 1000; votes++ {
		cur := Hotness(votes, created)
		if cur < prev {
			t.Fatalf("Hotness decreased at votes=%d", votes)
		}
		prev = cur
	}
}

func TestHotnessStrictlyIncreasingInTime(t *testing.T) {
	created := int64(1_700_000_000)
	if Hotness(5, created+1) <= Hotness(5, created) {
		t.Fatal("Expected a newer comment to rank higher with equal votes")
	}
	// 12.5 小时的新旧差距抵得上 10 倍票数
	older := Hotness(100, created)
	newer := Hotness(10, created+45000)
	if math.Abs(older-newer) > 1e-9 {
		t.Errorf("Expected equal hotness, got %f vs %f", older, newer)
	}
}
