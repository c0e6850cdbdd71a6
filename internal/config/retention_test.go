package config

import "testing"

func TestEffectiveKeep(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{3, 3},
		{10, 10},
	}
	for _, tt := range tests {
		if got := EffectiveKeep(tt.in); got != tt.want {
			t.Errorf("EffectiveKeep(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestKeepWarning(t *testing.T) {
	if KeepWarning(3) != "" {
		t.Error("no warning expected for keep 3")
	}
	if KeepWarning(0) == "" {
		t.Error("warning expected for keep 0")
	}
}
