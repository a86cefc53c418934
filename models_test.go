package main

import (
	"testing"
	"time"
)

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id := generateID()
		if id == "" {
			t.Fatal("generateID returned empty string")
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	now := time.Date(2026, 2, 20, 9, 30, 15, 123_000_000, time.FixedZone("BRT", -3*3600))
	ts := formatTimestamp(now)

	if dayOf(ts) != "2026-02-20" {
		t.Fatalf("expected UTC calendar day 2026-02-20, got %q", dayOf(ts))
	}
	parsed, err := parseTimestamp(ts)
	if err != nil {
		t.Fatalf("parseTimestamp failed: %v", err)
	}
	if !parsed.Equal(now) {
		t.Fatalf("timestamp round trip lost precision: %v != %v", parsed, now)
	}
}

func TestAverageRating(t *testing.T) {
	data := EmptyAnalyticsData()
	if _, ok := data.AverageRating(); ok {
		t.Fatal("expected no average with zero ratings")
	}

	data.SatisfactionRatings = []SatisfactionRating{
		{Rating: 3}, {Rating: 5},
	}
	avg, ok := data.AverageRating()
	if !ok || avg != 4.0 {
		t.Fatalf("expected average 4.0, got %f ok=%v", avg, ok)
	}
}

func TestCountByStatus(t *testing.T) {
	data := EmptyAnalyticsData()
	data.FormSubmissions = []FormSubmission{
		{Status: StatusPending},
		{Status: StatusPending},
		{Status: StatusContacted},
		{Status: StatusConverted},
	}

	if got := data.PendingSubmissions(); got != 2 {
		t.Fatalf("expected 2 pending, got %d", got)
	}
	if got := data.CountByStatus(StatusContacted); got != 1 {
		t.Fatalf("expected 1 contacted, got %d", got)
	}
	if got := data.CountByStatus(StatusConverted); got != 1 {
		t.Fatalf("expected 1 converted, got %d", got)
	}
}

func TestRecommendCount(t *testing.T) {
	data := EmptyAnalyticsData()
	data.SatisfactionRatings = []SatisfactionRating{
		{WouldRecommend: true},
		{WouldRecommend: false},
		{WouldRecommend: true},
	}
	if got := data.RecommendCount(); got != 2 {
		t.Fatalf("expected 2 recommends, got %d", got)
	}
}
