package components

import "testing"

func TestSparkline(t *testing.T) {
	data := []float64{0, 25, 50, 75, 100, 50, 25, 0}
	result := Sparkline(data, 8)
	if len([]rune(result)) != 8 {
		t.Errorf("expected 8 chars, got %d", len([]rune(result)))
	}
	runes := []rune(result)
	if runes[0] != blocks[0] || runes[4] != blocks[len(blocks)-1] {
		t.Errorf("expected min and max blocks at the extremes, got %q", result)
	}
}

func TestSparklineEmpty(t *testing.T) {
	result := Sparkline(nil, 8)
	if result != "        " {
		t.Errorf("expected 8 spaces for empty data, got %q", result)
	}
}

func TestSparklineKeepsNewest(t *testing.T) {
	result := []rune(Sparkline([]float64{100, 0, 1}, 2))
	if len(result) != 2 {
		t.Fatalf("expected 2 chars, got %d", len(result))
	}
	if result[0] != blocks[0] || result[1] != blocks[len(blocks)-1] {
		t.Errorf("expected the oldest value dropped, got %q", string(result))
	}
}

func TestSparklineSingleValue(t *testing.T) {
	result := []rune(Sparkline([]float64{50}, 4))
	if len(result) != 4 {
		t.Errorf("expected 4 chars, got %d", len(result))
	}
	if result[3] != blocks[3] {
		t.Errorf("flat data should use the middle block, got %q", string(result))
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v        float64
		expected string
	}{
		{0, "0"},
		{0.256, "0.26"},
		{12.34, "12.3"},
		{500, "500"},
		{1500, "1.5K"},
		{-2500, "-2.5K"},
		{1_500_000, "1.5M"},
		{1_500_000_000, "1.5G"},
		{2_500_000_000_000, "2.5T"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.v); got != tt.expected {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.v, got, tt.expected)
		}
	}
}
