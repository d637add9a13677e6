package types

// KeyConcept is one required concept a free-text answer should cover.
type KeyConcept struct {
	Concept string  `json:"concept"`
	Weight  float64 `json:"weight"`
	// Synonyms widen the match beyond the literal concept phrase.
	Synonyms []string `json:"synonyms,omitempty"`
}

// MatchPair is one left/right pairing in a matching-format rubric.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Rubric is the structured grading criteria for a question or task. Only the
// fields relevant to the answer format are populated.
type Rubric struct {
	// Free-text grading
	KeyConcepts []KeyConcept `json:"key_concepts,omitempty"`

	// Multiple choice: index into the question's choices.
	Choices       []string `json:"choices,omitempty"`
	CorrectChoice int      `json:"correct_choice,omitempty"`

	// Fill-in-blank: expected value per slot, in order.
	Blanks []string `json:"blanks,omitempty"`

	// Matching
	Pairs []MatchPair `json:"pairs,omitempty"`

	// Code review: defects the submission should identify.
	Defects []string `json:"defects,omitempty"`

	// Prioritization: reference ordering of item identifiers.
	ReferenceOrder []string `json:"reference_order,omitempty"`
}
