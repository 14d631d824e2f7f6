package domain

import "testing"

func TestRatingForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  Rating
	}{
		{95, RatingAPlus},
		{85, RatingAPlus},
		{84.9, RatingA},
		{75, RatingA},
		{74.9, RatingBPlus},
		{65, RatingBPlus},
		{64.9, RatingB},
		{55, RatingB},
		{54.9, RatingC},
		{0, RatingC},
	}
	for _, c := range cases {
		if got := RatingForScore(c.score); got != c.want {
			t.Errorf("RatingForScore(%v) = %v, want %v", c.score, got, c.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Errorf("Clamp(5,0,10) = %v, want 5", got)
	}
	if got := Clamp(-1, 0, 10); got != 0 {
		t.Errorf("Clamp(-1,0,10) = %v, want 0", got)
	}
	if got := Clamp(11, 0, 10); got != 10 {
		t.Errorf("Clamp(11,0,10) = %v, want 10", got)
	}
}

func TestConfigErrorIs(t *testing.T) {
	err := &ConfigError{File: "run.yaml", Err: ErrConfig}
	if !err.Is(ErrConfig) {
		t.Error("ConfigError.Is(ErrConfig) = false, want true")
	}
	if err.Error() == "" {
		t.Error("ConfigError.Error() returned empty string")
	}
}
