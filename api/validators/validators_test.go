package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	pkgerrors "github.com/globelconnect/esim-backend/pkg/errors"
)

type orderBody struct {
	PlanCode string `json:"planCode" validate:"required"`
	Email    string `json:"email" validate:"required"`
}

func TestDecodeJSONBodyIgnoresUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/order", strings.NewReader(`{"planCode":"DATA5","email":"a@b.c","extra":true}`))
	var body orderBody
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.PlanCode != "DATA5" || body.Email != "a@b.c" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDecodeJSONBodyReportsMissingFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/order", strings.NewReader(`{"email":"a@b.c"}`))
	var body orderBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["planCode"] != "is required" {
		t.Fatalf("expected planCode detail, got %v", typed.Details())
	}
}

func TestDecodeJSONBodyEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/order", strings.NewReader(""))
	var body orderBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty body, got %v", err)
	}
}

func TestDecodeJSONBodyMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/order", strings.NewReader(`{"planCode":`))
	var body orderBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for malformed body, got %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/plans?limit=25&bad=x&big=5000", nil)
	if got, err := ParseQueryInt(req, "limit", 0, 0, 1000); err != nil || got != 25 {
		t.Fatalf("expected 25, got %d (%v)", got, err)
	}
	if got, err := ParseQueryInt(req, "missing", 7, 0, 1000); err != nil || got != 7 {
		t.Fatalf("expected default, got %d (%v)", got, err)
	}
	_, err := ParseQueryInt(req, "bad", 0, 0, 1000)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation || typed.Message() != "bad must be an integer" {
		t.Fatalf("expected validation error naming the field, got %v", err)
	}
	if _, err := ParseQueryInt(req, "big", 0, 0, 1000); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  Europe  ", 0); got != "Europe" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("abcdef", 3); got != "abc" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("Europe\x00\n", 0); got != "Europe" {
		t.Fatalf("expected control characters dropped, got %q", got)
	}
	// "Côte" is five bytes; a cap of 2 must not split the "ô".
	if got := SanitizeString("Côte", 2); got != "C" {
		t.Fatalf("expected rune-safe cut, got %q", got)
	}
	if got := SanitizeString("Côte", 3); !utf8.ValidString(got) || got != "Cô" {
		t.Fatalf("expected whole rune kept, got %q", got)
	}
}
