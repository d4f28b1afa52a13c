package dtw

import (
	"math"
	"testing"
)

func TestFullCostIdenticalMatricesIsZero(t *testing.T) {
	m := mfccMatrix(20, 13, func(i, j int) float64 { return float64(i+j) * 0.1 })

	alignment := FullCost(DefaultConfig(), m, m)
	if alignment.Cost > 1e-9 {
		t.Errorf("expected near-zero cost for identical matrices, got %v", alignment.Cost)
	}
	if alignment.PathLength < 20 {
		t.Errorf("expected path length at least len(master)=20, got %d", alignment.PathLength)
	}
}

func TestFullCostEmptyInputsReturnInfiniteCost(t *testing.T) {
	alignment := FullCost(DefaultConfig(), nil, nil)
	if !math.IsInf(alignment.Cost, 1) {
		t.Errorf("expected infinite cost for empty inputs, got %v", alignment.Cost)
	}
}

func TestFullAlignmentNormalizedCost(t *testing.T) {
	a := FullAlignment{Cost: 9, PathLength: 9}
	if got := a.NormalizedCost(); math.Abs(got-3) > 1e-9 {
		t.Errorf("expected sqrt-normalized cost 3, got %v", got)
	}
}

func TestFullAlignmentNormalizedCostZeroPathLength(t *testing.T) {
	a := FullAlignment{Cost: 5, PathLength: 0}
	if got := a.NormalizedCost(); !math.IsInf(got, 1) {
		t.Errorf("expected infinite normalized cost for zero path length, got %v", got)
	}
}

func TestFullCostDivergentMatricesCostMoreThanIdentical(t *testing.T) {
	master := mfccMatrix(20, 13, func(i, j int) float64 { return float64(i+j) * 0.1 })
	divergent := mfccMatrix(20, 13, func(i, j int) float64 { return float64((i*7+j*13)%11) * 5.0 })

	identical := FullCost(DefaultConfig(), master, master)
	mismatched := FullCost(DefaultConfig(), master, divergent)

	if mismatched.NormalizedCost() <= identical.NormalizedCost() {
		t.Errorf("expected divergent alignment cost (%v) to exceed identical alignment cost (%v)",
			mismatched.NormalizedCost(), identical.NormalizedCost())
	}
}
