package validation

import "testing"

func TestEmail(t *testing.T) {
	valid := []string{"a@b.com", "payer+tag@example.co.uk", "x_y@sub.domain.io"}
	for _, s := range valid {
		if !Email(s) {
			t.Errorf("Email(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "not-an-email", "a@", "@b.com", "Name <a@b.com>"}
	for _, s := range invalid {
		if Email(s) {
			t.Errorf("Email(%q) = true, want false", s)
		}
	}
}

func TestMobile(t *testing.T) {
	if !Mobile("09123456789") {
		t.Error("expected 09123456789 to be valid")
	}
	for _, s := range []string{"", "9123456789", "0912345678", "091234567890", "+989123456789"} {
		if Mobile(s) {
			t.Errorf("Mobile(%q) = true, want false", s)
		}
	}
}

func TestLinkToken(t *testing.T) {
	if !LinkToken("aB3dE6gH9jKl") {
		t.Error("expected alphanumeric token to be valid")
	}
	for _, s := range []string{"", "short1", "has-dash-in-it", "white space00"} {
		if LinkToken(s) {
			t.Errorf("LinkToken(%q) = true, want false", s)
		}
	}
}

func TestAmount(t *testing.T) {
	if !Amount(1) || Amount(0) || Amount(-5) {
		t.Error("Amount bounds wrong")
	}
}

func TestTrimmedNonEmpty(t *testing.T) {
	if !TrimmedNonEmpty(" x ") || TrimmedNonEmpty("   ") || TrimmedNonEmpty("") {
		t.Error("TrimmedNonEmpty wrong")
	}
}
