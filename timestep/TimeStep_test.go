package timestep

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStepTypes(t *testing.T) {
	obs := mat.NewVecDense(2, nil)
	tests := []struct {
		step      TimeStep
		first     bool
		mid       bool
		last      bool
		hasReward bool
	}{
		{New(First, 0, 1, obs, 0), true, false, false, false},
		{New(Mid, 1, 1, obs, 1), false, true, false, true},
		{New(Last, 1, 1, obs, 500), false, false, true, true},
	}

	for _, test := range tests {
		if got := test.step.First(); got != test.first {
			t.Errorf("first: %v: have(%v) want(%v)", test.step.StepType,
				got, test.first)
		}
		if got := test.step.Mid(); got != test.mid {
			t.Errorf("mid: %v: have(%v) want(%v)", test.step.StepType,
				got, test.mid)
		}
		if got := test.step.Last(); got != test.last {
			t.Errorf("last: %v: have(%v) want(%v)", test.step.StepType,
				got, test.last)
		}
		if got := test.step.HasReward(); got != test.hasReward {
			t.Errorf("hasReward: %v: have(%v) want(%v)", test.step.StepType,
				got, test.hasReward)
		}
	}
}

func TestString(t *testing.T) {
	first := New(First, 0, 1, nil, 0)
	if !strings.Contains(first.String(), "None") {
		t.Errorf("string: first step should print no reward, got %q",
			first.String())
	}

	mid := New(Mid, 1, 0.5, nil, 3)
	want := "TimeStep | Type: Mid  |  Reward:  1.00  |  Discount: 0.50  |  " +
		"Step Number:  3"
	if mid.String() != want {
		t.Errorf("string: have(%q) want(%q)", mid.String(), want)
	}
}
