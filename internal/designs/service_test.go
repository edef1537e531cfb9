package designs

import (
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
)

func TestValidateSubmit(t *testing.T) {
	valid := SubmitInput{
		Name:        "Asha Pillai",
		Email:       "asha@example.com",
		Description: "Block print repeat of marigolds on a mustard base.",
	}

	t.Run("accepts a complete intake", func(t *testing.T) {
		if err := validateSubmit(valid); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("keys each missing field", func(t *testing.T) {
		err := validateSubmit(SubmitInput{Email: "not-an-email"})
		coded := pkgerrors.As(err)
		if coded == nil || coded.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
		details, ok := coded.Details().(map[string]string)
		if !ok {
			t.Fatalf("details = %T, want map", coded.Details())
		}
		for _, key := range []string{"name", "email", "description"} {
			if _, present := details[key]; !present {
				t.Fatalf("missing detail for %q in %v", key, details)
			}
		}
	})

	t.Run("caps reference media", func(t *testing.T) {
		input := valid
		for i := 0; i < maxReferenceMedia+1; i++ {
			input.ReferenceMediaIDs = append(input.ReferenceMediaIDs, uuid.New())
		}
		err := validateSubmit(input)
		coded := pkgerrors.As(err)
		if coded == nil || coded.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestMediaIDStrings(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	out := mediaIDStrings([]uuid.UUID{first, second})
	if len(out) != 2 || out[0] != first.String() || out[1] != second.String() {
		t.Fatalf("unexpected conversion: %v", out)
	}
}
