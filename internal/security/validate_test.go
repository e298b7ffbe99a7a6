package security

import (
	"strings"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	if got := SanitizeText("  <b>hola</b>  ", 100); got != "bhola/b" {
		t.Fatalf("unexpected sanitize result: %q", got)
	}
	long := strings.Repeat("a", 50)
	if got := SanitizeText(long, 10); len(got) != 10 {
		t.Fatalf("expected cap at 10, got %d", len(got))
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"ana@x.com", "first.last@sub.example.org"}
	invalid := []string{"", "ana", "ana@", "@x.com", "a b@x.com", "ana@x.com " , strings.Repeat("a", 250) + "@x.com"}
	for _, e := range valid {
		if !ValidEmail(e) {
			t.Fatalf("expected %q valid", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Fatalf("expected %q invalid", e)
		}
	}
}

func TestValidPropertyID(t *testing.T) {
	if !ValidPropertyID("3e3b8c0a-6a1f-4b5e-9f5c-0d2f9a1b2c3d") {
		t.Fatal("canonical UUID rejected")
	}
	for _, id := range []string{"", "not-a-uuid", "3e3b8c0a6a1f4b5e9f5c0d2f9a1b2c3d"} {
		if ValidPropertyID(id) {
			t.Fatalf("expected %q rejected", id)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	if got := EscapeLike(`100%_\x`); got != `100\%\_\\x` {
		t.Fatalf("unexpected escape: %q", got)
	}
}
