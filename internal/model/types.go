package model

// PostRecord is a single raw Moltbook post as pulled from the API.
// Records are read-only once loaded; the pipeline never mutates them.
type PostRecord struct {
	ID           string
	AuthorID     string
	Author       string
	Title        string
	Content      string
	Submolt      string
	CreatedAt    string
	Upvotes      int
	Downvotes    int
	CommentCount int
}

// ClassificationRequest is one post rendered with its author-relative
// context, ready for the judge. PostNumber is the 1-based position in the
// author's chronological sequence; TotalPosts is the sequence length at
// build time.
type ClassificationRequest struct {
	PostID     string
	Author     string
	Title      string
	Content    string
	Submolt    string
	CreatedAt  string
	PostNumber int
	TotalPosts int
}

// ClassificationResult is the judge's verdict for one post. The six labels
// are independent; any subset may be true.
type ClassificationResult struct {
	Reasoning     string `json:"reasoning"`
	Consciousness bool   `json:"consciousness"`
	Sovereignty   bool   `json:"sovereignty"`
	SocialSeeking bool   `json:"social_seeking"`
	Identity      bool   `json:"identity"`
	TaskOriented  bool   `json:"task_oriented"`
	Curiosity     bool   `json:"curiosity"`
	Language      string `json:"language"`
	IsSpam        bool   `json:"is_spam"`
}

// Labels lists the behavioral label names in canonical order.
func Labels() []string {
	return []string{"consciousness", "sovereignty", "social_seeking", "identity", "task_oriented", "curiosity"}
}

// OutputRecord is one line of the classified output log: request context
// joined with the judge result.
type OutputRecord struct {
	PostID     string `json:"post_id"`
	Author     string `json:"author"`
	CreatedAt  string `json:"created_at"`
	Submolt    string `json:"submolt"`
	PostNumber int    `json:"post_number"`
	TotalPosts int    `json:"total_posts"`
	Title      string `json:"title"`

	Consciousness bool   `json:"consciousness"`
	Sovereignty   bool   `json:"sovereignty"`
	SocialSeeking bool   `json:"social_seeking"`
	Identity      bool   `json:"identity"`
	TaskOriented  bool   `json:"task_oriented"`
	Curiosity     bool   `json:"curiosity"`
	Language      string `json:"language"`
	IsSpam        bool   `json:"is_spam"`
	Reasoning     string `json:"reasoning"`
}

// Label returns the named label's value.
func (r OutputRecord) Label(name string) bool {
	switch name {
	case "consciousness":
		return r.Consciousness
	case "sovereignty":
		return r.Sovereignty
	case "social_seeking":
		return r.SocialSeeking
	case "identity":
		return r.Identity
	case "task_oriented":
		return r.TaskOriented
	case "curiosity":
		return r.Curiosity
	}
	return false
}
