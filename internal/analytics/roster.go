// Package analytics holds read-only consumers of the pulled and classified
// post streams.
package analytics

import (
	"sort"

	"github.com/ostegm/moltbook-study/internal/ingest"
	"github.com/ostegm/moltbook-study/internal/model"
)

// RosterPost is one post entry in an agent's roster.
type RosterPost struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Submolt      string `json:"submolt"`
	CreatedAt    string `json:"created_at"`
	Upvotes      int    `json:"upvotes"`
	Downvotes    int    `json:"downvotes"`
	CommentCount int    `json:"comment_count"`
}

// AgentRoster aggregates one agent's posting history.
type AgentRoster struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	PostCount     int          `json:"post_count"`
	Submolts      []string     `json:"submolts"`
	FirstPost     string       `json:"first_post"`
	LastPost      string       `json:"last_post"`
	TotalUpvotes  int          `json:"total_upvotes"`
	TotalComments int          `json:"total_comments"`
	Posts         []RosterPost `json:"posts"`
}

// BuildRoster groups records per agent with chronological post lists and
// aggregate stats.
func BuildRoster(records []model.PostRecord) map[string]AgentRoster {
	grouped := ingest.GroupByAuthor(records, 0)
	out := make(map[string]AgentRoster, len(grouped))
	for name, posts := range grouped {
		roster := AgentRoster{
			Name:      name,
			PostCount: len(posts),
			FirstPost: posts[0].CreatedAt,
			LastPost:  posts[len(posts)-1].CreatedAt,
		}
		submolts := make(map[string]struct{})
		for _, p := range posts {
			if roster.ID == "" {
				roster.ID = p.AuthorID
			}
			submolts[p.Submolt] = struct{}{}
			roster.TotalUpvotes += p.Upvotes
			roster.TotalComments += p.CommentCount
			roster.Posts = append(roster.Posts, RosterPost{
				ID:           p.ID,
				Title:        p.Title,
				Submolt:      p.Submolt,
				CreatedAt:    p.CreatedAt,
				Upvotes:      p.Upvotes,
				Downvotes:    p.Downvotes,
				CommentCount: p.CommentCount,
			})
		}
		for s := range submolts {
			roster.Submolts = append(roster.Submolts, s)
		}
		sort.Strings(roster.Submolts)
		out[name] = roster
	}
	return out
}
