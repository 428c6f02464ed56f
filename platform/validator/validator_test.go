package validator

import "testing"

func TestMinDigits(t *testing.T) {
	v := New()
	if err := v.Var("+34 600-00-00", "mindigits=8"); err != nil {
		t.Fatalf("expected 9 digits to pass, got %v", err)
	}
	if err := v.Var("600 00", "mindigits=8"); err == nil {
		t.Fatal("expected 5 digits to fail")
	}
}

func TestTrimMin(t *testing.T) {
	v := New()
	if err := v.Var("  A  ", "trimmin=2"); err == nil {
		t.Fatal("expected single character after trim to fail")
	}
	if err := v.Var("Ñu", "trimmin=2"); err != nil {
		t.Fatalf("expected two runes to pass, got %v", err)
	}
}

func TestFieldErrors(t *testing.T) {
	type form struct {
		Email string `validate:"contains=@"`
	}
	errs := FieldErrors(New().Struct(form{Email: "nope"}))
	if len(errs) != 1 || errs[0].Field() != "Email" {
		t.Fatalf("expected one Email error, got %v", errs)
	}
}
