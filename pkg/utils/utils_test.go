package utils

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		def  int
		want int
	}{
		{"", 10, 10},
		{"abc", 10, 10},
		{"0", 10, 10},
		{"-3", 1, 1},
		{"25", 10, 25},
	}

	for _, tt := range tests {
		if got := ParseInt(tt.in, tt.def); got != tt.want {
			t.Errorf("ParseInt(%q, %d) = %d, want %d", tt.in, tt.def, got, tt.want)
		}
	}
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		SlotID string `validate:"required,uuid4"`
		Action string `validate:"required,oneof=cancel complete"`
	}

	if errs := ValidateStruct(payload{SlotID: uuid.NewString(), Action: "cancel"}); errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}

	errs := ValidateStruct(payload{SlotID: "nope", Action: "delete"})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if errs["SlotID"] != "Must be a valid UUID" {
		t.Errorf("SlotID message = %q", errs["SlotID"])
	}

	want := "Action: Must be one of: cancel, complete; SlotID: Must be a valid UUID"
	if got := FormatValidationErrors(errs); got != want {
		t.Errorf("FormatValidationErrors() = %q, want %q", got, want)
	}
}

func TestUserContext(t *testing.T) {
	if _, ok := GetUserIDFromContext(context.Background()); ok {
		t.Fatal("empty context must not carry a user")
	}

	id := uuid.New()
	ctx := SetUserContext(context.Background(), id, "authenticated")

	got, ok := GetUserIDFromContext(ctx)
	if !ok || got != id {
		t.Errorf("GetUserIDFromContext() = %v, %v; want %v, true", got, ok, id)
	}
	if role, _ := GetRoleFromContext(ctx); role != "authenticated" {
		t.Errorf("GetRoleFromContext() = %q", role)
	}
}
