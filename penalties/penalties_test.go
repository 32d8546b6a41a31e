package penalties

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
)

func param(values ...float64) *mfgnet.Param {
	p := mfgnet.NewParam("weights", len(values))
	copy(p.Values, values)
	return p
}

func TestPenalize(t *testing.T) {
	tests := []struct {
		name  string
		pen   mfgnet.Penalty
		grads []float64
		cost  float64
	}{
		{"l1", L1(0.1), []float64{0.1, 0, -0.1}, 0.1 * 3},
		{"l2", L2(0.1), []float64{0.4, 0, -0.2}, 0.1 * 5},
		{"elastic-net l1", ElasticNet(1, 0.1), []float64{0.1, 0, -0.1}, 0.1 * 3},
		{"elastic-net l2", ElasticNet(0, 0.1), []float64{0.4, 0, -0.2}, 0.1 * 5},
		{"elastic-net mixed", ElasticNet(0.5, 0.2), []float64{0.5, 0, -0.3}, 0.2 * (0.5*5 + 0.5*3)},
	}

	for _, test := range tests {
		p := param(2, 0, -1)
		test.pen.Penalize(p)

		for i, want := range test.grads {
			if math.Abs(p.Grads[i]-want) > 1e-12 {
				t.Errorf("%s: grad %d = %g, want %g", test.name, i, p.Grads[i], want)
			}
		}
		if c := test.pen.Cost(p); math.Abs(c-test.cost) > 1e-12 {
			t.Errorf("%s: Cost() = %g, want %g", test.name, c, test.cost)
		}
	}
}

func TestPenalizeAccumulates(t *testing.T) {
	p := param(1)
	p.Grads[0] = 5

	Ridge(0.5).Penalize(p)
	if p.Grads[0] != 6 {
		t.Errorf("grad = %g, want 6", p.Grads[0])
	}

	Lasso(0.5).Penalize(p)
	if p.Grads[0] != 6.5 {
		t.Errorf("grad = %g, want 6.5", p.Grads[0])
	}
}

func TestGetPenalty(t *testing.T) {
	tests := []struct {
		pc      mfgnet.PenaltyConfig
		want    string
		wantErr bool
	}{
		{mfgnet.PenaltyConfig{}, "", false},
		{mfgnet.PenaltyConfig{Type: mfgnet.PenaltyNone}, "", false},
		{mfgnet.PenaltyConfig{Type: mfgnet.PenaltyL1, Lambda: 0.01}, mfgnet.PenaltyL1, false},
		{mfgnet.PenaltyConfig{Type: mfgnet.PenaltyL2, Lambda: 0.01}, mfgnet.PenaltyL2, false},
		{mfgnet.PenaltyConfig{Type: mfgnet.PenaltyElasticNet, Lambda: 0.01, Alpha: 0.3}, mfgnet.PenaltyElasticNet, false},
		{mfgnet.PenaltyConfig{Type: mfgnet.PenaltyL2}, "", true},
		{mfgnet.PenaltyConfig{Type: mfgnet.PenaltyElasticNet, Lambda: 0.01, Alpha: 2}, "", true},
		{mfgnet.PenaltyConfig{Type: "dropconnect", Lambda: 1}, "", true},
		{mfgnet.PenaltyConfig{Type: mfgnet.PenaltyL1, Lambda: math.Inf(1)}, "", true},
		{mfgnet.PenaltyConfig{Type: mfgnet.PenaltyL2, Lambda: math.NaN()}, "", true},
		{mfgnet.PenaltyConfig{Type: mfgnet.PenaltyElasticNet, Lambda: 0.01, Alpha: math.NaN()}, "", true},
	}

	for _, test := range tests {
		p, err := mfgnet.GetPenalty(test.pc)
		if test.wantErr {
			if err == nil {
				t.Errorf("%v: expected error", test.pc)
			}
			continue
		} else if err != nil {
			t.Errorf("%v: %v", test.pc, err)
			continue
		}

		switch {
		case test.want == "" && p != nil:
			t.Errorf("%v: got %s, want no penalty", test.pc, p.TypeString())
		case test.want != "" && (p == nil || p.TypeString() != test.want):
			t.Errorf("%v: got %v, want %s", test.pc, p, test.want)
		}
	}

	_, err := mfgnet.GetPenalty(mfgnet.PenaltyConfig{Type: "dropconnect", Lambda: 1})
	if errors.Cause(err) != mfgnet.ErrUnknownName {
		t.Errorf("unknown penalty: error = %v, want ErrUnknownName", err)
	}

	if got := mfgnet.Penalties(); len(got) != 3 {
		t.Errorf("Penalties() = %v, want 3 names", got)
	}
}
