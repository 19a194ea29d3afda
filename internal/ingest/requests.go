package ingest

import (
	"github.com/ostegm/moltbook-study/internal/model"
	"github.com/ostegm/moltbook-study/internal/util"
)

// MaxContentRunes bounds post content sent to the judge. Long posts are
// truncated, not summarized.
const MaxContentRunes = 2000

// BuildRequests converts one author's chronologically ordered posts into
// classification requests. The i-th request gets PostNumber i+1 and
// TotalPosts len(posts). Identical input always yields identical ordinals.
func BuildRequests(author string, posts []model.PostRecord) []model.ClassificationRequest {
	total := len(posts)
	out := make([]model.ClassificationRequest, 0, total)
	for i, p := range posts {
		out = append(out, model.ClassificationRequest{
			PostID:     p.ID,
			Author:     author,
			Title:      p.Title,
			Content:    util.TruncateRunes(p.Content, MaxContentRunes),
			Submolt:    p.Submolt,
			CreatedAt:  p.CreatedAt,
			PostNumber: i + 1,
			TotalPosts: total,
		})
	}
	return out
}
