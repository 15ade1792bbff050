package evaluate

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/moss-coleman/acdlo/internal/cache"
	"github.com/moss-coleman/acdlo/internal/derive"
	"github.com/moss-coleman/acdlo/internal/symbolic"
)

func derivedStore(t *testing.T, order, masses int) *cache.Store {
	t.Helper()
	eng, err := derive.New(derive.Config{PolyOrder: order, NumMasses: masses})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	store := cache.New(t.TempDir())
	if err := eng.Run(store); err != nil {
		t.Fatalf("derive: %v", err)
	}
	return store
}

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	ev, err := New(derivedStore(t, 1, 2))
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	return ev
}

func TestNewRequiresCache(t *testing.T) {
	if _, err := New(cache.New(t.TempDir())); err == nil {
		t.Error("empty directory accepted, want error")
	}
}

func TestFKStraight(t *testing.T) {
	ev := newEvaluator(t)
	if ev.States() != 2 || ev.PolyOrder() != 1 {
		t.Fatalf("states/order = %d/%d, want 2/1", ev.States(), ev.PolyOrder())
	}
	p := []float64{0.5, 0.5, 0.7, 0.1}
	pos, err := ev.FK([]float64{0, 0}, p, 1, 0)
	if err != nil {
		t.Fatalf("fk: %v", err)
	}
	if math.Abs(pos.AtVec(0)) > 1e-12 || math.Abs(pos.AtVec(1)+0.7) > 1e-12 {
		t.Errorf("straight tip at (%g, %g), want (0, -0.7)", pos.AtVec(0), pos.AtVec(1))
	}
}

func TestJacobianGolden(t *testing.T) {
	ev := newEvaluator(t)
	jac, err := ev.Jacobian([]float64{0, 0}, []float64{0.5, 0.5, 1, 0.1}, 0.5, 0.1)
	if err != nil {
		t.Fatalf("jacobian: %v", err)
	}
	want := [][]float64{{-0.5, 0}, {-0.01, -0.005}}
	for i := range want {
		for j := range want[i] {
			if math.Abs(jac.At(i, j)-want[i][j]) > 1e-12 {
				t.Errorf("J[%d][%d] = %g, want %g", i, j, jac.At(i, j), want[i][j])
			}
		}
	}
}

func TestInertiaSymmetric(t *testing.T) {
	ev := newEvaluator(t)
	theta := []float64{0.3, 0.7}
	p := []float64{0.5, 0.3, 0.7, 0.04}
	b, err := ev.Inertia(theta, p)
	if err != nil {
		t.Fatalf("inertia: %v", err)
	}
	var diff mat.Dense
	diff.Sub(b, b.T())
	if mat.Norm(&diff, 1) > 1e-12 {
		t.Errorf("B not symmetric:\n%v", mat.Formatted(b))
	}
}

func TestGravityTiltZeroMatchesFixed(t *testing.T) {
	ev := newEvaluator(t)
	theta := []float64{0.3, 0.1}
	p := []float64{0.5, 0.3, 0.7, 0.04}
	g, err := ev.Gravity(theta, p)
	if err != nil {
		t.Fatalf("gravity: %v", err)
	}
	gv, err := ev.GravityTilted(theta, 0, p)
	if err != nil {
		t.Fatalf("gravity tilted: %v", err)
	}
	for k := 0; k < ev.States(); k++ {
		if math.Abs(g.AtVec(k)-gv.AtVec(k)) > 1e-12 {
			t.Errorf("G[%d] = %g, Gv[%d](0) = %g", k, g.AtVec(k), k, gv.AtVec(k))
		}
	}
}

func TestTorqueMatchesRegressor(t *testing.T) {
	ev := newEvaluator(t)
	theta := []float64{0.3, 0.7}
	dtheta := []float64{0.2, -0.4}
	ddtheta := []float64{0.1, 0.5}
	mL, mE := 0.5, 0.3
	p := []float64{mL, mE, 0.7, 0.04}

	torque, err := ev.Torque(theta, dtheta, ddtheta, p)
	if err != nil {
		t.Fatalf("torque: %v", err)
	}
	y, err := ev.Regressor(theta, dtheta, ddtheta, p)
	if err != nil {
		t.Fatalf("regressor: %v", err)
	}

	var viaY mat.VecDense
	viaY.MulVec(y, mat.NewVecDense(2, []float64{mL, mE}))
	for k := 0; k < ev.States(); k++ {
		if math.Abs(torque.AtVec(k)-viaY.AtVec(k)) > 1e-9 {
			t.Errorf("torque[%d] = %g, Y*m = %g", k, torque.AtVec(k), viaY.AtVec(k))
		}
	}

	dmL, err := ev.DEdmL(theta, dtheta, ddtheta, p)
	if err != nil {
		t.Fatalf("dE_dmL: %v", err)
	}
	e0L, err := ev.EmL0(theta, dtheta, ddtheta, p)
	if err != nil {
		t.Fatalf("E_mL_0: %v", err)
	}
	for k := 0; k < ev.States(); k++ {
		got := dmL.AtVec(k)*mL + e0L.AtVec(k)
		if math.Abs(torque.AtVec(k)-got) > 1e-9 {
			t.Errorf("m_L split [%d] = %g, torque %g", k, got, torque.AtVec(k))
		}
	}
}

func TestInputValidation(t *testing.T) {
	ev := newEvaluator(t)
	p := []float64{0.5, 0.3, 0.7, 0.04}
	if _, err := ev.FK([]float64{0.1}, p, 1, 0); err == nil {
		t.Error("short theta accepted")
	}
	if _, err := ev.FK([]float64{0.1, 0.2, 0.3}, p, 1, 0); err == nil {
		t.Error("long theta accepted")
	}
	if _, err := ev.Gravity([]float64{0.1, 0.2}, []float64{1, 2}); err == nil {
		t.Error("short parameter vector accepted")
	}
	if _, err := ev.Coriolis([]float64{0.1, 0.2}, []float64{0.1}, p); err == nil {
		t.Error("short dtheta accepted")
	}
}

func TestResidueDiscarded(t *testing.T) {
	// Off-domain inputs drive the complex arithmetic off the real line. The
	// real part still comes back; the residue is flagged, not an error.
	m := symbolic.NewMatrix(1, 1)
	m.Set(0, 0, symbolic.SqrtOf(symbolic.S("theta_0")))
	store := cache.New(t.TempDir())
	art := cache.Artifact{
		Name:   cache.SlotGravity,
		Syms:   []string{"theta_0", "m_L", "m_E", "L", "D"},
		Matrix: m,
	}
	if err := store.Save(0, 2, []cache.Artifact{art}); err != nil {
		t.Fatalf("save: %v", err)
	}
	ev, err := New(store)
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}

	// sqrt(-4) = 2i: real part zero, residue 2.
	g, err := ev.Gravity([]float64{-4}, []float64{0.5, 0.5, 0.7, 0.04})
	if err != nil {
		t.Fatalf("off-domain evaluation rejected: %v", err)
	}
	if math.Abs(g.AtVec(0)) > 1e-12 {
		t.Errorf("Re sqrt(-4) = %g, want 0", g.AtVec(0))
	}
}

func TestCorruptCacheRejected(t *testing.T) {
	store := derivedStore(t, 1, 2)
	if _, err := New(store); err != nil {
		t.Fatalf("clean cache rejected: %v", err)
	}

	// A cache that lies about its argument layout must fail to compile.
	art, err := store.Load(cache.SlotGravity)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	art.Syms = art.Syms[:1]
	bad := cache.New(t.TempDir())
	if err := bad.Save(1, 2, []cache.Artifact{*art}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := New(bad); err == nil {
		t.Error("truncated symbol layout accepted, want compile error")
	}
}

func TestConcurrentEvaluation(t *testing.T) {
	ev := newEvaluator(t)
	p := []float64{0.5, 0.3, 0.7, 0.04}
	done := make(chan error, 8)
	for w := 0; w < 8; w++ {
		go func(w int) {
			theta := []float64{0.1 * float64(w), 0.2}
			for i := 0; i < 50; i++ {
				if _, err := ev.Inertia(theta, p); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}(w)
	}
	for w := 0; w < 8; w++ {
		if err := <-done; err != nil {
			t.Errorf("worker failed: %v", err)
		}
	}
}
