package pipeline

import (
	"math"
	"testing"
)

func TestPercentRanksStrictlyIncreasing(t *testing.T) {
	// The canonical cohort: densities [10, 50, 90] map to density scores
	// [100, 50, 0] once inverted.
	ranks := PercentRanks([]float64{10, 50, 90})
	want := []float64{0, 0.5, 1}
	for i := range want {
		if math.Abs(ranks[i]-want[i]) > 1e-9 {
			t.Errorf("rank[%d] = %f, want %f", i, ranks[i], want[i])
		}
	}
}

func TestPercentRanksUnsortedInput(t *testing.T) {
	ranks := PercentRanks([]float64{90, 10, 50})
	want := []float64{1, 0, 0.5}
	for i := range want {
		if math.Abs(ranks[i]-want[i]) > 1e-9 {
			t.Errorf("rank[%d] = %f, want %f", i, ranks[i], want[i])
		}
	}
}

func TestPercentRanksTiesShareRank(t *testing.T) {
	ranks := PercentRanks([]float64{5, 5, 5, 20})
	for i := 0; i < 3; i++ {
		if ranks[i] != 0 {
			t.Errorf("tied rank[%d] = %f, want 0", i, ranks[i])
		}
	}
	if ranks[3] != 1 {
		t.Errorf("rank[3] = %f, want 1", ranks[3])
	}
}

func TestPercentRanksDegenerateCohorts(t *testing.T) {
	if got := PercentRanks(nil); len(got) != 0 {
		t.Errorf("empty cohort: %v", got)
	}
	if got := PercentRanks([]float64{42}); len(got) != 1 || got[0] != 0 {
		t.Errorf("single-member cohort: %v, want [0]", got)
	}
	for _, r := range PercentRanks([]float64{7, 7, 7}) {
		if r != 0 {
			t.Errorf("all-tied cohort rank = %f, want 0", r)
		}
	}
}

func TestPercentRanksInvariantUnderMonotonicRescale(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	rescaled := make([]float64, len(values))
	for i, v := range values {
		rescaled[i] = v*v*10 + 7 // strictly increasing on non-negative input
	}

	a := PercentRanks(values)
	b := PercentRanks(rescaled)
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			t.Errorf("rank[%d] changed under monotonic rescale: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestPercentRanksDeterministic(t *testing.T) {
	values := []float64{2, 8, 2, 5, 8, 0}
	a := PercentRanks(values)
	b := PercentRanks(values)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("ranks differ between identical runs at %d", i)
		}
	}
}

func TestCompositeWeighting(t *testing.T) {
	d, dt := 100.0, 50.0
	got := Composite(&d, &dt, 0.6, 0.4)
	if math.Abs(got-80) > 1e-9 {
		t.Errorf("composite = %f, want 80", got)
	}
}

func TestCompositeMissingComponentsNeutral(t *testing.T) {
	dt := 70.0
	if got := Composite(nil, &dt, 0.6, 0.4); math.Abs(got-58) > 1e-9 {
		t.Errorf("composite with missing density = %f, want 0.6*50 + 0.4*70 = 58", got)
	}
	if got := Composite(nil, nil, 0.6, 0.4); math.Abs(got-50) > 1e-9 {
		t.Errorf("composite with both missing = %f, want 50", got)
	}
}

func TestCompositeClamped(t *testing.T) {
	hi, lo := 100.0, 0.0
	if got := Composite(&hi, &hi, 2.0, 3.0); got != 100 {
		t.Errorf("composite with extreme weights = %f, want clamp to 100", got)
	}
	if got := Composite(&lo, &hi, 1.0, -1.0); got != 0 {
		t.Errorf("composite with negative contribution = %f, want clamp to 0", got)
	}
}

func TestLabelBands(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "Well Served"},
		{12.4, "Well Served"},
		{20.0, "Well Served"}, // boundary belongs to the lower band
		{20.01, "Adequate"},
		{40.0, "Adequate"},
		{40.5, "Moderate Shortage"},
		{60.0, "Moderate Shortage"},
		{61, "Significant Shortage"},
		{80.0, "Significant Shortage"},
		{80.1, "Severe Shortage"},
		{100, "Severe Shortage"},
	}

	for _, tt := range tests {
		if got := Label(tt.score); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestDensityScoreExample(t *testing.T) {
	// End to end through the rank inversion: strictly increasing densities
	// [10, 50, 90] give density scores [100, 50, 0].
	ranks := PercentRanks([]float64{10, 50, 90})
	want := []float64{100, 50, 0}
	for i, r := range ranks {
		score := 100 * (1 - r)
		if math.Abs(score-want[i]) > 1e-9 {
			t.Errorf("density score[%d] = %f, want %f", i, score, want[i])
		}
	}
}
