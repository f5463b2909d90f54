package domain

import (
	"fmt"
	"strings"
)

// PairMatch is one submitted left/right pairing for a matching question.
type PairMatch struct {
	LeftID  string `json:"leftId"`
	RightID string `json:"rightId"`
}

// Answer is the submitted payload for a question. Exactly one of the fields is
// meaningful, selected by the question's type tag.
type Answer struct {
	OptionIDs []string    `json:"optionIds,omitempty"`
	Text      string      `json:"text,omitempty"`
	Pairs     []PairMatch `json:"pairs,omitempty"`
}

// Validate checks the payload shape against the question's type. It returns an
// error wrapping ErrInvalidAnswer so callers can classify it with errors.Is.
func (a Answer) Validate(q Question) error {
	switch q.Type {
	case QuestionMultipleChoice:
		if len(a.OptionIDs) == 0 {
			return fmt.Errorf("%w: multiple choice requires at least one option", ErrInvalidAnswer)
		}
		return a.validateOptions(q)
	case QuestionSingleChoice, QuestionBoolean:
		if len(a.OptionIDs) != 1 {
			return fmt.Errorf("%w: %s requires exactly one option", ErrInvalidAnswer, q.Type)
		}
		return a.validateOptions(q)
	case QuestionFreeText:
		if strings.TrimSpace(a.Text) == "" {
			return fmt.Errorf("%w: free text requires a non-empty answer", ErrInvalidAnswer)
		}
		return nil
	case QuestionMatchingPairs:
		return a.validatePairs(q)
	default:
		return fmt.Errorf("%w: unsupported question type %q", ErrInvalidAnswer, q.Type)
	}
}

func (a Answer) validateOptions(q Question) error {
	valid := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		valid[opt.ID] = true
	}
	seen := make(map[string]bool, len(a.OptionIDs))
	for _, id := range a.OptionIDs {
		if !valid[id] {
			return fmt.Errorf("%w: unknown option %q", ErrInvalidAnswer, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate option %q", ErrInvalidAnswer, id)
		}
		seen[id] = true
	}
	return nil
}

func (a Answer) validatePairs(q Question) error {
	if len(a.Pairs) == 0 {
		return fmt.Errorf("%w: matching requires at least one pair", ErrInvalidAnswer)
	}
	left := make(map[string]bool, len(q.Pairs))
	right := make(map[string]bool, len(q.Pairs))
	for _, p := range q.Pairs {
		left[p.LeftID] = true
		right[p.RightID] = true
	}
	usedLeft := make(map[string]bool, len(a.Pairs))
	for _, m := range a.Pairs {
		if !left[m.LeftID] {
			return fmt.Errorf("%w: unknown left item %q", ErrInvalidAnswer, m.LeftID)
		}
		if !right[m.RightID] {
			return fmt.Errorf("%w: unknown right item %q", ErrInvalidAnswer, m.RightID)
		}
		if usedLeft[m.LeftID] {
			return fmt.Errorf("%w: left item %q matched twice", ErrInvalidAnswer, m.LeftID)
		}
		usedLeft[m.LeftID] = true
	}
	return nil
}
