package domain

type ThemeOption struct {
	ID        string        `json:"id" toml:"id"`
	Label     string        `json:"label" toml:"label"`
	Query     string        `json:"query,omitempty" toml:"query"`
	Subtopics []ThemeOption `json:"subtopics,omitempty" toml:"subtopics"`
}

func (t ThemeOption) IsLeaf() bool {
	return len(t.Subtopics) == 0
}
