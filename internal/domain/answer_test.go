package domain

import (
	"errors"
	"testing"
)

func TestValidateChoiceAnswers(t *testing.T) {
	q := Question{
		ID:   "q1",
		Type: QuestionMultipleChoice,
		Options: []Option{
			{ID: "a"}, {ID: "b", Correct: true}, {ID: "c"},
		},
	}

	if err := (Answer{OptionIDs: []string{"a", "b"}}).Validate(q); err != nil {
		t.Fatalf("valid subset rejected: %v", err)
	}
	if err := (Answer{}).Validate(q); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("empty selection must be invalid, got %v", err)
	}
	if err := (Answer{OptionIDs: []string{"a", "x"}}).Validate(q); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("unknown option must be invalid, got %v", err)
	}
	if err := (Answer{OptionIDs: []string{"a", "a"}}).Validate(q); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("duplicate option must be invalid, got %v", err)
	}

	q.Type = QuestionSingleChoice
	if err := (Answer{OptionIDs: []string{"a", "b"}}).Validate(q); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("single choice must take exactly one option, got %v", err)
	}

	q.Type = QuestionBoolean
	q.Options = []Option{{ID: "true", Correct: true}, {ID: "false"}}
	if err := (Answer{OptionIDs: []string{"false"}}).Validate(q); err != nil {
		t.Fatalf("boolean pick rejected: %v", err)
	}
	if err := (Answer{OptionIDs: []string{"maybe"}}).Validate(q); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("boolean must be one of the two values, got %v", err)
	}
}

func TestValidateFreeText(t *testing.T) {
	q := Question{ID: "q1", Type: QuestionFreeText}
	if err := (Answer{Text: "cloud"}).Validate(q); err != nil {
		t.Fatalf("free text rejected: %v", err)
	}
	if err := (Answer{Text: "   "}).Validate(q); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("blank text must be invalid, got %v", err)
	}
}

func TestValidateMatchingPairs(t *testing.T) {
	q := Question{
		ID:   "q1",
		Type: QuestionMatchingPairs,
		Pairs: []Pair{
			{LeftID: "l1", RightID: "r1"},
			{LeftID: "l2", RightID: "r2"},
		},
	}

	ok := Answer{Pairs: []PairMatch{{LeftID: "l1", RightID: "r2"}, {LeftID: "l2", RightID: "r1"}}}
	if err := ok.Validate(q); err != nil {
		t.Fatalf("well-formed pairing rejected: %v", err)
	}
	if err := (Answer{}).Validate(q); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("empty pairing must be invalid, got %v", err)
	}
	bad := Answer{Pairs: []PairMatch{{LeftID: "nope", RightID: "r1"}}}
	if err := bad.Validate(q); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("unknown left item must be invalid, got %v", err)
	}
	dup := Answer{Pairs: []PairMatch{{LeftID: "l1", RightID: "r1"}, {LeftID: "l1", RightID: "r2"}}}
	if err := dup.Validate(q); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("double-matched left item must be invalid, got %v", err)
	}
}
