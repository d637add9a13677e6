package types

// Answer is a submitted solution for a task or interview question. Only the
// fields for the target format are read; the grading policy never cares
// whether Text arrived typed or transcribed from voice.
type Answer struct {
	Text string `json:"text,omitempty"`

	// Multiple choice: index into the rubric's choices.
	ChoiceIndex *int `json:"choice_index,omitempty"`

	// Fill-in-blank: submitted value per slot, in order.
	Blanks []string `json:"blanks,omitempty"`

	// Matching: left -> right assignments.
	Pairs map[string]string `json:"pairs,omitempty"`

	// Code review: defects the submitter identified.
	DefectsFound []string `json:"defects_found,omitempty"`

	// Prioritization: submitted ordering of item identifiers.
	Ordering []string `json:"ordering,omitempty"`
}
