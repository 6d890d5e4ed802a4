package entity

import "testing"

func TestKey(t *testing.T) {
	tests := []struct{ a, b string }{
		{"Pascal", "pascal"},
		{"  City Ruins ", "CITY RUINS"},
		{"Operator 6O", "operator 6o"},
		{"Straße", "STRASSE"},
	}
	for _, tt := range tests {
		if Key(tt.a) != Key(tt.b) {
			t.Errorf("Key(%q)=%q != Key(%q)=%q", tt.a, Key(tt.a), tt.b, Key(tt.b))
		}
	}
	if Key("Operator 6O") == Key("Operator 60") {
		t.Error("letter O folded onto digit 0")
	}
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]Category{"main": Main, "Side": Side, " MAIN ": Main} {
		got, ok := ParseCategory(in)
		if !ok || got != want {
			t.Errorf("ParseCategory(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseCategory("dlc"); ok {
		t.Error("dlc accepted")
	}
}
