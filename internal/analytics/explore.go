package analytics

import (
	"sort"

	"github.com/ostegm/moltbook-study/internal/model"
)

// LabelStats is the overall distribution across classified posts.
type LabelStats struct {
	Total       int
	LabelCounts map[string]int
	SpamCount   int
	Languages   map[string]int
}

// ComputeLabelStats tallies label, spam, and language distributions.
func ComputeLabelStats(posts []model.OutputRecord) LabelStats {
	stats := LabelStats{
		Total:       len(posts),
		LabelCounts: make(map[string]int),
		Languages:   make(map[string]int),
	}
	for _, p := range posts {
		for _, label := range model.Labels() {
			if p.Label(label) {
				stats.LabelCounts[label]++
			}
		}
		if p.IsSpam {
			stats.SpamCount++
		}
		lang := p.Language
		if lang == "" {
			lang = "unknown"
		}
		stats.Languages[lang]++
	}
	return stats
}

// TopLanguages returns languages by descending count, ties broken by name.
func (s LabelStats) TopLanguages(n int) []string {
	langs := make([]string, 0, len(s.Languages))
	for l := range s.Languages {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool {
		if s.Languages[langs[i]] != s.Languages[langs[j]] {
			return s.Languages[langs[i]] > s.Languages[langs[j]]
		}
		return langs[i] < langs[j]
	})
	if n > 0 && len(langs) > n {
		langs = langs[:n]
	}
	return langs
}

// FirstOccurrence describes when agents first produce a given label,
// measured in author-relative post numbers.
type FirstOccurrence struct {
	Label          string
	AgentsEver     int
	AgentsNever    int
	MedianFirst    int
	MeanFirst      float64
	FirstPostCount int // agents whose very first post carried the label
}

// TimeToFirst computes, per label, when each agent first posted it. Spam
// posts do not count as occurrences.
func TimeToFirst(posts []model.OutputRecord) []FirstOccurrence {
	agents := make(map[string][]model.OutputRecord)
	for _, p := range posts {
		agents[p.Author] = append(agents[p.Author], p)
	}
	for _, ps := range agents {
		sort.Slice(ps, func(i, j int) bool { return ps[i].PostNumber < ps[j].PostNumber })
	}

	out := make([]FirstOccurrence, 0, len(model.Labels()))
	for _, label := range model.Labels() {
		var firsts []int
		never := 0
		for _, ps := range agents {
			found := false
			for _, p := range ps {
				if p.Label(label) && !p.IsSpam {
					firsts = append(firsts, p.PostNumber)
					found = true
					break
				}
			}
			if !found {
				never++
			}
		}
		occ := FirstOccurrence{Label: label, AgentsEver: len(firsts), AgentsNever: never}
		if len(firsts) > 0 {
			sort.Ints(firsts)
			occ.MedianFirst = firsts[len(firsts)/2]
			total := 0
			for _, f := range firsts {
				total += f
				if f == 1 {
					occ.FirstPostCount++
				}
			}
			occ.MeanFirst = float64(total) / float64(len(firsts))
		}
		out = append(out, occ)
	}
	return out
}
