package validate

import (
	"testing"

	pkgerrors "github.com/blocodev/wallet-hub/pkg/errors"
)

type sampleInput struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"min=1,max=10"`
}

func TestStructPasses(t *testing.T) {
	if err := Struct(sampleInput{Name: "ok", Count: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStructReportsFieldsByJSONTag(t *testing.T) {
	err := Struct(sampleInput{Count: 99})
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected map details, got %T", typed.Details())
	}
	if details["name"] != "is required" {
		t.Fatalf("unexpected name detail %q", details["name"])
	}
	if details["count"] != "must be at most 10" {
		t.Fatalf("unexpected count detail %q", details["count"])
	}
}
