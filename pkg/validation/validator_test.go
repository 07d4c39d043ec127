package validation

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Name  string   `validate:"required"`
	Items []string `validate:"min=1,max=3"`
	Price *int     `validate:"omitempty,gte=0"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()
	negative := -5

	tests := []struct {
		name      string
		input     sample
		wantField string
		wantMsg   string
	}{
		{name: "valid", input: sample{Name: "a", Items: []string{"x"}}},
		{name: "missing name", input: sample{Items: []string{"x"}}, wantField: "Name", wantMsg: "Name is required"},
		{name: "too few items", input: sample{Name: "a"}, wantField: "Items", wantMsg: "Items must be at least 1"},
		{name: "too many items", input: sample{Name: "a", Items: []string{"1", "2", "3", "4"}}, wantField: "Items", wantMsg: "Items must be at most 3"},
		{name: "negative price", input: sample{Name: "a", Items: []string{"x"}, Price: &negative}, wantField: "Price", wantMsg: "Price must be greater than or equal to 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
			}
			if len(verrs) != 1 {
				t.Fatalf("expected 1 error, got %d: %v", len(verrs), verrs)
			}
			if verrs[0].Field != tt.wantField || verrs[0].Message != tt.wantMsg {
				t.Errorf("got %+v, want field=%s message=%q", verrs[0], tt.wantField, tt.wantMsg)
			}
			if verrs.Details()[tt.wantField] != tt.wantMsg {
				t.Errorf("Details() missing %s", tt.wantField)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "A", Message: "bad"},
		{Field: "B", Message: "worse"},
	}
	msg := errs.Error()
	if !strings.Contains(msg, "2 error(s)") || !strings.Contains(msg, "A: bad; B: worse") {
		t.Errorf("unexpected message %q", msg)
	}
	if (ValidationErrors{}).Error() != "" {
		t.Error("empty errors should have empty message")
	}
}
