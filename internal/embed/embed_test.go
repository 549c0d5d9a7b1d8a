package embed

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
	}{
		{"simple vector", []float32{3, 4}},
		{"negative components", []float32{-1, 2, -3}},
		{"already normalized", []float32{1, 0, 0}},
		{"tiny components", []float32{1e-4, 2e-4, 2e-4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeL2(tt.in)

			var sum float64
			for _, x := range got {
				sum += float64(x) * float64(x)
			}
			norm := math.Sqrt(sum)

			if math.Abs(norm-1.0) > 1e-4 {
				t.Errorf("norm = %v, want 1.0 within 1e-4", norm)
			}
		})
	}
}

func TestNormalizeL2_ZeroVector(t *testing.T) {
	in := []float32{0, 0, 0}
	got := NormalizeL2(in)

	for i, x := range got {
		if x != 0 {
			t.Errorf("component %d = %v, want 0 (zero vector must pass through)", i, x)
		}
	}
}

func TestNormalizeL2_PreservesDirection(t *testing.T) {
	got := NormalizeL2([]float32{3, 4})

	if math.Abs(float64(got[0])-0.6) > 1e-6 || math.Abs(float64(got[1])-0.8) > 1e-6 {
		t.Errorf("NormalizeL2([3 4]) = %v, want [0.6 0.8]", got)
	}
}
