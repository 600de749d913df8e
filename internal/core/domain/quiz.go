package domain

// QuizOption is one selectable answer of a quiz question.
type QuizOption struct {
	Token string `json:"token"`
	Label string `json:"label"`
}

// QuizQuestion is a single-choice prompt.
type QuizQuestion struct {
	ID      int          `json:"id"`
	Prompt  string       `json:"prompt"`
	Options []QuizOption `json:"options"`
}

// QuizResult is the recommendation produced from a full answer set.
type QuizResult struct {
	Category    Category `json:"category"`
	Description string   `json:"description"`
	// ImageURL is filled by the optional illustrative-image fetch;
	// empty when generation is unavailable or failed.
	ImageURL string `json:"image_url,omitempty"`
}
