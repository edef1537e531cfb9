package users

import (
	"testing"

	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
)

func TestValidateAccount(t *testing.T) {
	t.Run("accepts a complete account", func(t *testing.T) {
		if err := validateAccount("asha@example.com", "plenty-long", "Asha Pillai"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("keys each failing field", func(t *testing.T) {
		err := validateAccount("not-an-email", "short", "")
		coded := pkgerrors.As(err)
		if coded == nil || coded.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
		details, ok := coded.Details().(map[string]string)
		if !ok {
			t.Fatalf("details = %T, want map", coded.Details())
		}
		for _, key := range []string{"email", "password", "fullName"} {
			if _, present := details[key]; !present {
				t.Fatalf("missing detail for %q in %v", key, details)
			}
		}
	})

	t.Run("requires an email", func(t *testing.T) {
		err := validateAccount("", "plenty-long", "Asha Pillai")
		coded := pkgerrors.As(err)
		if coded == nil || coded.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}
