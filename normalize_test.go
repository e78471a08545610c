package sprout

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   \t\n ", ""},
		{"  Make  It   BLUE ", "make it blue"},
		{"２番目", "2番目"},
		{"ＣＡＴ", "cat"},
		{"ｶﾞｷﾞｸﾞ", "ガギグ"},
		{"猫　を　消して", "猫 を 消して"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContainsTerm(t *testing.T) {
	tests := []struct {
		text, term string
		want       bool
	}{
		{"a cat here", "cat", true},
		{"category", "cat", false},
		{"cat-a.png", "cat", true},
		{"catを消して", "cat", true},
		{"赤い猫", "猫", true},
		{"anything", "", false},
	}
	for _, tt := range tests {
		if got := containsTerm(tt.text, tt.term); got != tt.want {
			t.Errorf("containsTerm(%q, %q) = %v, want %v", tt.text, tt.term, got, tt.want)
		}
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("a small red flower")
	want := []string{"small", "red", "flower"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}

	got = Tokens("cat-b")
	if !reflect.DeepEqual(got, []string{"cat"}) {
		t.Errorf("Tokens(cat-b) = %v, want [cat]", got)
	}

	got = Tokens("赤い花")
	if !reflect.DeepEqual(got, []string{"赤い花"}) {
		t.Errorf("Tokens(赤い花) = %v, want whole wide run", got)
	}
}

func TestStripExt(t *testing.T) {
	tests := map[string]string{
		"cat-a.png":        "cat-a",
		"movie.webm":       "movie",
		"no extension":     "no extension",
		"v1.2 of the file": "v1.2 of the file",
	}
	for in, want := range tests {
		if got := stripExt(in); got != want {
			t.Errorf("stripExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"2", 2, true},
		{"12", 12, true},
		{"三", 3, true},
		{"十", 10, true},
		{"十二", 12, true},
		{"二十", 20, true},
		{"二十三", 23, true},
		{"18446744073709551618", maxCount, true},
		{"", 0, false},
		{"x", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseCount(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseCount(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
