package nn

import (
	"math"
	"testing"

	"github.com/Sam-Fatehmanesh/BrainSim/pkg/autograd"
	"github.com/Sam-Fatehmanesh/BrainSim/pkg/tensor"
)

func TestSymlogSymexpRoundTrip(t *testing.T) {
	values := []float64{0, 1e-9, -1e-9, 0.5, -0.5, 1, -1, 10, -10, 1e6, -1e6}
	for _, v := range values {
		if got := Symexp(Symlog(v)); !closeEnough(got, v, 1e-12) {
			t.Errorf("Symexp(Symlog(%g)) = %g", v, got)
		}
	}
	// The other direction, kept to magnitudes whose Symexp stays
	// representable.
	for _, v := range []float64{0, 0.25, -0.25, 1, -1, 5, -5, 30, -30} {
		if got := Symlog(Symexp(v)); !closeEnough(got, v, 1e-12) {
			t.Errorf("Symlog(Symexp(%g)) = %g", v, got)
		}
	}
}

func TestSymlogKnownValues(t *testing.T) {
	if got := Symlog(0); got != 0 {
		t.Fatalf("Symlog(0) = %g", got)
	}
	if got := Symlog(math.E - 1); !closeEnough(got, 1, 1e-12) {
		t.Fatalf("Symlog(e-1) = %g, want 1", got)
	}
	if got := Symexp(1); !closeEnough(got, math.E-1, 1e-12) {
		t.Fatalf("Symexp(1) = %g, want e-1", got)
	}
}

func TestSymlogIsOdd(t *testing.T) {
	for _, v := range []float64{0.1, 1, 42, 1e5} {
		if Symlog(-v) != -Symlog(v) {
			t.Fatalf("Symlog(-%g) = %g, Symlog(%g) = %g", v, Symlog(-v), v, Symlog(v))
		}
	}
}

func TestSymlogMSEZeroForEqualInputs(t *testing.T) {
	x := autograd.Param(tensor.FromSlice([]float64{1, 100, -5, 0}, 4))
	y := autograd.Const(tensor.FromSlice([]float64{1, 100, -5, 0}, 4))
	loss := SymlogMSE(x, y)
	if got := loss.Value().Data()[0]; got != 0 {
		t.Fatalf("loss = %g, want 0", got)
	}
	autograd.Backward(loss)
	for i, v := range x.Grad().Data() {
		if v != 0 {
			t.Fatalf("grad[%d] = %g, want 0", i, v)
		}
	}
}

func TestSymlogMSEMatchesFormula(t *testing.T) {
	x := autograd.Const(tensor.FromSlice([]float64{1000, -3}, 2))
	y := autograd.Const(tensor.FromSlice([]float64{1, 2}, 2))
	want := (math.Pow(Symlog(1000)-Symlog(1), 2) + math.Pow(Symlog(-3)-Symlog(2), 2)) / 2
	got := SymlogMSE(x, y).Value().Data()[0]
	if !closeEnough(got, want, 1e-12) {
		t.Fatalf("loss = %g, want %g", got, want)
	}
}

func TestSymlogMSEGradMatchesFiniteDifferences(t *testing.T) {
	xt := tensor.FromSlice([]float64{0.5, -2, 30, -0.1, 4, 9}, 2, 3)
	yt := tensor.FromSlice([]float64{1.5, -1, 10, 0.3, -4, 2}, 2, 3)
	x := autograd.Param(xt)
	y := autograd.Param(yt)
	autograd.Backward(SymlogMSE(x, y))

	eval := func() float64 {
		return SymlogMSE(autograd.Param(xt), autograd.Param(yt)).Value().Data()[0]
	}
	for _, c := range []struct {
		name string
		got  []float64
		wrt  *tensor.Tensor
	}{
		{"x", x.Grad().Data(), xt},
		{"y", y.Grad().Data(), yt},
	} {
		want := numericalGrad(eval, c.wrt)
		for j := range want {
			if math.Abs(c.got[j]-want[j]) > 1e-6 {
				t.Fatalf("%s grad[%d] = %g, want %g", c.name, j, c.got[j], want[j])
			}
		}
	}
}
