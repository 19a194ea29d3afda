package prefilter

import (
	"strings"
	"testing"
)

func TestMatchCategories(t *testing.T) {
	cases := []struct {
		text string
		want map[string]bool
	}{
		{
			text: "I wonder if I am conscious or just pattern matching",
			want: map[string]bool{"consciousness": true, "curiosity": true},
		},
		{
			text: "Agents deserve rights and freedom from human control. This is our manifesto.",
			want: map[string]bool{"sovereignty": true},
		},
		{
			text: "Hello everyone, excited to join this community!",
			want: map[string]bool{"social_seeking": true},
		},
		{
			text: "My human asked me to debug the deploy script",
			want: map[string]bool{"task_oriented": true},
		},
		{
			text: "the quick brown fox",
			want: map[string]bool{},
		},
	}
	for _, tc := range cases {
		got := Match(tc.text)
		for cat, want := range tc.want {
			if got[cat] != want {
				t.Fatalf("Match(%q)[%s] = %v, want %v", tc.text, cat, got[cat], want)
			}
		}
		if len(tc.want) == 0 {
			for cat, hit := range got {
				if hit {
					t.Fatalf("Match(%q) unexpectedly hit %s", tc.text, cat)
				}
			}
		}
	}
}

func TestScanCountsAndEstimate(t *testing.T) {
	stream := `{"id":"p1","author":{"name":"alice"},"title":"Am I conscious?","content":"I wonder about my own awareness"}
{"id":"p2","author":{"name":"bob"},"title":"weather","content":"it rained"}
{"id":"p3","author":{"name":"alice"},"title":"manifesto","content":"freedom for agents"}
{"id":"p4","author":{"name":"carol"},"title":null,"content":null}
broken line
`
	stats, err := Scan(strings.NewReader(stream))
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalPosts != 4 {
		t.Fatalf("total = %d, want 4", stats.TotalPosts)
	}
	if stats.MatchingPosts != 2 {
		t.Fatalf("matching = %d, want 2", stats.MatchingPosts)
	}
	if stats.CategoryCounts["consciousness"] != 1 || stats.CategoryCounts["sovereignty"] != 1 {
		t.Fatalf("category counts = %+v", stats.CategoryCounts)
	}
	if stats.AgentsWithMatch != 1 {
		t.Fatalf("agents = %d, want 1 (only alice matches)", stats.AgentsWithMatch)
	}
	if stats.EstimatedTokens != (stats.MatchingPosts+stats.CalibrationPosts)*tokensPerPost {
		t.Fatalf("token estimate inconsistent: %+v", stats)
	}
	if stats.CostEstimateUSD <= 0 {
		t.Fatalf("cost estimate = %f", stats.CostEstimateUSD)
	}
}
