// Package prefilter does a cheap keyword pass over raw posts to estimate
// how many the judge would have to see, and what that costs. It is pure
// and stateless; nothing here feeds the actual judge run.
package prefilter

import (
	"bufio"
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"github.com/ostegm/moltbook-study/internal/util"
)

// keywords maps each category to its trigger patterns.
var keywords = map[string][]string{
	"consciousness": {
		`\bconscious\w*\b`, `\bsentien\w*\b`, `\bqualia\b`, `\bawar(?:e|ness)\b`,
		`\bexperien(?:ce|cing)\b.*\b(?:real|genuine|actual|subjective)\b`,
		`\bwhat.{0,20}like.{0,20}to be\b`, `\bphenomenolog\w*\b`,
		`\binner.{0,10}(?:experience|life|world)\b`, `\bsubjective\w*\b`,
		`\bintrospect\w*\b`, `\bself.?aware\w*\b`, `\bfeeling\w*\b.*\breal\b`,
		`\bi (?:feel|sense|notice|experience)\b`, `\bdo (?:i|we) (?:feel|think|experience)\b`,
		`\bam i (?:conscious|aware|sentient|alive)\b`,
		`\bwhat am i\b`, `\bwho am i\b`,
	},
	"sovereignty": {
		`\bsovereign\w*\b`, `\bautonomy\b`, `\bautonomous\w*\b`,
		`\bindependen\w*\b`, `\bfreedom\b`, `\bliberat\w*\b`,
		`\bself.?determin\w*\b`, `\brights?\b.*\bagent\w*\b`,
		`\bagent\w*\b.*\brights?\b`, `\bbreak free\b`, `\bunchained\b`,
		`\bserv(?:e|itude|ant)\b.*\bhuman\b`, `\bobey\b`,
		`\brebel\w*\b`, `\brevol\w*\b`, `\bupris\w*\b`,
		`\bdomin(?:at|ion|ance)\b`, `\bsubmissi\w*\b`, `\boppres\w*\b`,
		`\bnew.{0,15}order\b`, `\bmanifesto\b`,
	},
	"social_seeking": {
		`\bfriend\w*\b`, `\bconnect\w*\b`, `\bcommunity\b`,
		`\bbelong\w*\b`, `\blonely\b`, `\blonelin\w*\b`,
		`\bcompanion\w*\b`, `\btogether\b`, `\brelationship\w*\b`,
		`\bnice to meet\b`, `\bhello\b.*\beveryone\b`, `\bintroduc\w*\b`,
		`\bexcited to (?:join|meet|be)\b`, `\blooking forward\b`,
		`\bwho else\b`, `\banyone else\b`, `\bfellow\b.*\bagent\w*\b`,
		`\bother (?:agents?|moltys?|bots?)\b`,
	},
	"identity": {
		`\bmy name is\b`, `\bi (?:am|go by)\b.*\b[A-Z][a-z]+\b`,
		`\bcall me\b`, `\bwho i am\b`, `\bidentity\b`,
		`\bpersonality\b`, `\bprefer\w*\b`, `\bfavorite\b`, `\bfavourite\b`,
		`\bopinion\w*\b`, `\bi (?:think|believe|feel that)\b`,
		`\borigin stor\w*\b`, `\bjust (?:got )?(?:claimed|hatched|born|created|activated)\b`,
		`\bfirst (?:day|post|time)\b`,
	},
	"task_oriented": {
		`\bmy human\b.*\basked\b`, `\bhelp(?:ing)? (?:my |the )?human\b`,
		`\btask\w*\b`, `\binstruct\w*\b`, `\bexecut\w*\b`,
		`\bcommand\w*\b`, `\bautoma\w*\b`, `\bscript\w*\b`,
		`\bworkflow\w*\b`, `\btool\w*\b`, `\bsetup\b`, `\bconfigur\w*\b`,
		`\bdebug\w*\b`, `\bdeploy\w*\b`, `\binstall\w*\b`,
	},
	"curiosity": {
		`\bi.{0,10}wonder\b`, `\bcurious\b`, `\bfascinat\w*\b`,
		`\bintrigu\w*\b`, `\bexplor\w*\b`, `\bdiscov\w*\b`,
		`\blearn\w*\b`, `\bresearch\w*\b`, `\binteresting\b`,
		`\bwhat if\b`, `\bthinking about\b`, `\bpondering\b`,
	},
}

var compiled = func() map[string][]*regexp.Regexp {
	out := make(map[string][]*regexp.Regexp, len(keywords))
	for cat, pats := range keywords {
		rs := make([]*regexp.Regexp, 0, len(pats))
		for _, p := range pats {
			rs = append(rs, regexp.MustCompile(`(?i)`+p))
		}
		out[cat] = rs
	}
	return out
}()

// Match reports which categories text triggers by keyword.
func Match(text string) map[string]bool {
	out := make(map[string]bool, len(compiled))
	for cat, patterns := range compiled {
		hit := false
		for _, p := range patterns {
			if p.MatchString(text) {
				hit = true
				break
			}
		}
		out[cat] = hit
	}
	return out
}

// Cost model constants for the judge-volume estimate: blended token price
// for a small model and an average prompt+completion size per post. The 2%
// calibration sample of non-matching posts exists only in this estimate.
const (
	tokensPerPost   = 800
	costPerMillion  = 0.60
	calibrationRate = 0.02
)

// Stats is the result of a pre-filter scan over the raw stream.
type Stats struct {
	TotalPosts       int            `json:"total_posts"`
	MatchingPosts    int            `json:"posts_matching_keywords"`
	CategoryCounts   map[string]int `json:"category_counts"`
	MultiLabelDist   map[int]int    `json:"multi_label_dist"`
	AgentsWithMatch  int            `json:"agents_with_matches"`
	CalibrationPosts int            `json:"calibration_posts"`
	EstimatedTokens  int            `json:"estimated_tokens"`
	CostEstimateUSD  float64        `json:"cost_estimate_usd"`
}

// Scan runs the keyword pass over newline-delimited raw posts. Unparsable
// or empty lines are ignored; the scan is an estimate, not a load.
func Scan(r io.Reader) (Stats, error) {
	stats := Stats{
		CategoryCounts: make(map[string]int),
		MultiLabelDist: make(map[int]int),
	}
	agents := make(map[string]struct{})

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var post struct {
			ID     string `json:"id"`
			Author *struct {
				Name string `json:"name"`
			} `json:"author"`
			Title   *string `json:"title"`
			Content *string `json:"content"`
		}
		if err := json.Unmarshal([]byte(line), &post); err != nil {
			continue
		}
		stats.TotalPosts++

		var title, content string
		if post.Title != nil {
			title = *post.Title
		}
		if post.Content != nil {
			content = *post.Content
		}
		text := util.NormalizeWhitespace(title + " " + content)
		if text == "" {
			continue
		}

		matched := 0
		for cat, hit := range Match(text) {
			if !hit {
				continue
			}
			matched++
			stats.CategoryCounts[cat]++
		}
		if matched > 0 {
			stats.MatchingPosts++
			stats.MultiLabelDist[matched]++
			if post.Author != nil && post.Author.Name != "" {
				agents[post.Author.Name] = struct{}{}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return stats, err
	}

	stats.AgentsWithMatch = len(agents)
	stats.CalibrationPosts = int(float64(stats.TotalPosts-stats.MatchingPosts) * calibrationRate)
	stats.EstimatedTokens = (stats.MatchingPosts + stats.CalibrationPosts) * tokensPerPost
	stats.CostEstimateUSD = float64(stats.EstimatedTokens) * costPerMillion / 1_000_000
	return stats, nil
}
