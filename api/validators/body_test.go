package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
)

type samplePayload struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=2"`
}

func TestDecodeJSONBody(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.com","name":"Asha"}`))
		var payload samplePayload
		if err := DecodeJSONBody(req, &payload); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if payload.Email != "a@b.com" {
			t.Fatalf("unexpected email %q", payload.Email)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.com","name":"Asha","extra":1}`))
		var payload samplePayload
		err := DecodeJSONBody(req, &payload)
		if err == nil {
			t.Fatal("expected error for unknown field")
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("field errors keyed by json tag", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"not-an-email"}`))
		var payload samplePayload
		err := DecodeJSONBody(req, &payload)
		typed := pkgerrors.As(err)
		if typed == nil {
			t.Fatalf("expected typed error, got %v", err)
		}
		details, ok := typed.Details().(map[string]string)
		if !ok {
			t.Fatalf("expected keyed details, got %T", typed.Details())
		}
		if details["email"] != "must be a valid email" {
			t.Fatalf("unexpected email message %q", details["email"])
		}
		if details["name"] != "is required" {
			t.Fatalf("unexpected name message %q", details["name"])
		}
	})
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=30&bad=abc&huge=999", nil)

	value, err := ParseQueryInt(req, "limit", 20, 1, 100)
	if err != nil || value != 30 {
		t.Fatalf("expected 30, got %d (%v)", value, err)
	}

	value, err = ParseQueryInt(req, "missing", 20, 1, 100)
	if err != nil || value != 20 {
		t.Fatalf("expected default 20, got %d (%v)", value, err)
	}

	if _, err = ParseQueryInt(req, "bad", 20, 1, 100); err == nil {
		t.Fatal("expected error for non-numeric value")
	}
	if _, err = ParseQueryInt(req, "huge", 20, 1, 100); err == nil {
		t.Fatal("expected error for out-of-range value")
	}
}

func TestParseQueryUUID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?category_id="+id.String()+"&bad=nope", nil)

	parsed, err := ParseQueryUUID(req, "category_id")
	if err != nil || parsed == nil || *parsed != id {
		t.Fatalf("expected %s, got %v (%v)", id, parsed, err)
	}

	parsed, err = ParseQueryUUID(req, "absent")
	if err != nil || parsed != nil {
		t.Fatalf("expected nil for absent parameter, got %v (%v)", parsed, err)
	}

	if _, err = ParseQueryUUID(req, "bad"); err == nil {
		t.Fatal("expected error for malformed uuid")
	}
}

func TestParsePathUUID(t *testing.T) {
	id := uuid.New()
	parsed, err := ParsePathUUID(" "+id.String()+" ", "productId")
	if err != nil || parsed != id {
		t.Fatalf("expected %s, got %v (%v)", id, parsed, err)
	}

	if _, err := ParsePathUUID("nope", "productId"); err == nil {
		t.Fatal("expected error for malformed uuid")
	}
}
