package research

import "time"

// Concept is a node in an extracted knowledge graph.
type Concept struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Relationship is a labeled edge between two concepts.
type Relationship struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

type KnowledgeGraph struct {
	Concepts      []Concept      `json:"concepts"`
	Relationships []Relationship `json:"relationships"`
}

// Citation is a normalized reference to a web or YouTube source.
type Citation struct {
	Type        string  `json:"type"`
	ID          string  `json:"id,omitempty"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Publisher   string  `json:"publisher"`
	PublishedAt *string `json:"publishedAt"`
	Accessed    string  `json:"accessed"`
}

// ClaimSource identifies one source backing or disputing a claim.
type ClaimSource struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Link  string `json:"link,omitempty"`
	Title string `json:"title"`
}

type Claim struct {
	ID            string        `json:"id"`
	ClaimText     string        `json:"claim_text"`
	Supporting    []ClaimSource `json:"supporting"`
	Contradicting []ClaimSource `json:"contradicting"`
	Confidence    string        `json:"confidence"`
	Rationale     string        `json:"rationale"`
}

// SourceAnalysis is the cross-source claim comparison produced by the
// research assistant.
type SourceAnalysis struct {
	Topic     string     `json:"topic"`
	Claims    []Claim    `json:"claims"`
	Summary   string     `json:"summary"`
	Citations []Citation `json:"citations"`
}

func currentDate(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}
