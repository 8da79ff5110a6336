package matching

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"gpu compound", "RX9070XT", []string{"rx9070xt", "rx", "9070xt", "9070", "xt"}},
		{"gpu compound xtx", "rx7900xtx", []string{"rx7900xtx", "rx", "7900xtx", "7900", "xtx"}},
		{"gpu compound without variant", "rtx4060", []string{"rtx4060", "rtx", "4060"}},
		{"drops single characters", "Ryzen 5 7600X", []string{"ryzen", "7600x"}},
		{"ryzen compound", "ryzen57600x", []string{"ryzen57600x", "ryzen", "7600x", "7600"}},
		{"core compound", "corei714700k", []string{"corei714700k", "core", "i7", "14700k", "14700"}},
		{"deduplicates in first-seen order", "RTX 4070 rtx 4070 RTX4070", []string{"rtx", "4070", "rtx4070"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenize_ExpansionFindsSplitSpelling(t *testing.T) {
	joined := Tokenize("RX9070XT")
	split := Tokenize("RX 9070 XT")
	shared := SharedTokens(split, joined)
	if len(shared) != len(split) {
		t.Errorf("SharedTokens(%v, %v) = %v, want every split token", split, joined, shared)
	}
}

func TestSharedTokens(t *testing.T) {
	got := SharedTokens([]string{"rtx", "5070", "ti"}, []string{"ti", "rtx", "16gb"})
	want := []string{"rtx", "ti"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SharedTokens = %v, want %v", got, want)
	}

	if got := SharedTokens(nil, []string{"a"}); len(got) != 0 {
		t.Errorf("SharedTokens(nil, ...) = %v, want empty", got)
	}
}
