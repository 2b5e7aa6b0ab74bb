package textutil

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Huruf   Àbjad ": "huruf abjad",
		"ＡＢＣ":              "abc",
		"":                 "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchAll(t *testing.T) {
	if !MatchAll("", "anything") {
		t.Fatalf("empty query should match")
	}
	if !MatchAll("huruf sd", "Kartu Huruf", "Kelas 1 SD") {
		t.Fatalf("expected tokens to match across fields")
	}
	if MatchAll("huruf angka", "Kartu Huruf") {
		t.Fatalf("all tokens must match")
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Alam", "bunga", "ALAM", ""})
	if !reflect.DeepEqual(got, []string{"alam", "bunga"}) {
		t.Fatalf("unexpected tags %v", got)
	}
	if NormalizeTags(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
}
