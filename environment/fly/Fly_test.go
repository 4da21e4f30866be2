package fly

import (
	"image/color"
	"os"
	"testing"

	"github.com/samuelfneumann/flysmoke/environment"
	"github.com/samuelfneumann/flysmoke/render"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

func newTestFly(t *testing.T, opts ...Option) *Fly {
	t.Helper()

	backend, err := render.New(render.OSMesa, "", os.Getenv)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	opts = append([]Option{WithSeed(12), WithBackend(backend)}, opts...)
	env, err := TemplateTask(opts...)
	if err != nil {
		t.Fatalf("templateTask: %v", err)
	}
	t.Cleanup(func() { env.Close() })

	return env.(*Fly)
}

func randomAction(rng distuv.Normal, spec environment.Spec) *mat.VecDense {
	action := mat.NewVecDense(spec.Shape.Len(), nil)
	for i := 0; i < action.Len(); i++ {
		action.SetVec(i, rng.Rand())
	}
	return action
}

func TestSpecs(t *testing.T) {
	f := newTestFly(t)

	action := f.ActionSpec()
	if action.Shape.Len() != ActionDims {
		t.Fatalf("actionSpec: have(%v) want(%v) dimensions",
			action.Shape.Len(), ActionDims)
	}
	if len(f.ActionNames()) != ActionDims {
		t.Errorf("actionNames: have(%v) want(%v) names",
			len(f.ActionNames()), ActionDims)
	}
	for i := 0; i < Joints; i++ {
		if action.LowerBound.AtVec(i) != -1 || action.UpperBound.AtVec(i) != 1 {
			t.Errorf("actionSpec: position actuator %v bounds [%v, %v]", i,
				action.LowerBound.AtVec(i), action.UpperBound.AtVec(i))
		}
	}
	for i := Joints; i < ActionDims; i++ {
		if action.LowerBound.AtVec(i) != 0 || action.UpperBound.AtVec(i) != 1 {
			t.Errorf("actionSpec: adhesion actuator %v bounds [%v, %v]", i,
				action.LowerBound.AtVec(i), action.UpperBound.AtVec(i))
		}
	}

	if f.ObservationSpec().Shape.Len() != ObservationDims {
		t.Errorf("observationSpec: have(%v) want(%v) dimensions",
			f.ObservationSpec().Shape.Len(), ObservationDims)
	}
	if f.DiscountSpec().LowerBound.AtVec(0) != Discount {
		t.Errorf("discountSpec: have(%v) want(%v)",
			f.DiscountSpec().LowerBound.AtVec(0), Discount)
	}
}

func TestFirstStepResets(t *testing.T) {
	f := newTestFly(t)
	action := mat.NewVecDense(ActionDims, nil)

	step, last, err := f.Step(action)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !step.First() || step.HasReward() || last {
		t.Errorf("step: first step of a fresh environment should be a "+
			"reset, got %v", step)
	}
	if step.Observation.Len() != ObservationDims {
		t.Errorf("step: have(%v) want(%v) observation dimensions",
			step.Observation.Len(), ObservationDims)
	}

	step, last, err = f.Step(action)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !step.Mid() || last || step.Number != 1 {
		t.Errorf("step: expected mid step 1, got %v", step)
	}
	if step.Reward != 1.0 {
		t.Errorf("step: have(%v) want(%v) reward", step.Reward, 1.0)
	}
	if got := f.Physics().Time(); got < ControlTimestep*0.99 ||
		got > ControlTimestep*1.01 {
		t.Errorf("time: have(%v) want(%v)", got, ControlTimestep)
	}
}

func TestRandomActions(t *testing.T) {
	f := newTestFly(t)
	rng := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(3)}

	for i := 0; i < 50; i++ {
		step, _, err := f.Step(randomAction(rng, f.ActionSpec()))
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
		if i > 0 && (!step.HasReward() || step.Reward != 1.0) {
			t.Errorf("step %v: have(%v) want(1.0) reward", i, step.Reward)
		}
	}

	for i, act := range f.Activations() {
		ctrl := positionCtrl
		if i >= Joints {
			ctrl = adhesionCtrl
		}
		if act < ctrl.Min-1e-9 || act > ctrl.Max+1e-9 {
			t.Errorf("activations: actuator %v activation %v out of range",
				i, act)
		}
	}
}

func TestStanding(t *testing.T) {
	f := newTestFly(t)
	if _, err := f.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	action := mat.NewVecDense(ActionDims, nil)
	for i := Joints; i < ActionDims; i++ {
		action.SetVec(i, 1.0)
	}

	var obs *mat.VecDense
	for i := 0; i < 100; i++ {
		step, _, err := f.Step(action)
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
		obs = step.Observation
	}

	height := obs.AtVec(2 * Joints)
	if height <= 0 || height > StandHeight+StartDrop {
		t.Errorf("standing: thorax height %v outside (0, %v]", height,
			StandHeight+StartDrop)
	}

	contacts := 0.0
	for i := ObservationDims - Tarsi; i < ObservationDims; i++ {
		contacts += obs.AtVec(i)
	}
	if contacts == 0 {
		t.Error("standing: no tarsus touches the floor")
	}
}

func TestTimeLimit(t *testing.T) {
	f := newTestFly(t, WithTimeLimit(0.02))
	action := mat.NewVecDense(ActionDims, nil)

	if _, err := f.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	for i := 1; i <= 10; i++ {
		step, last, err := f.Step(action)
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
		if last != (i == 10) || step.Last() != last {
			t.Errorf("step %v: have(last=%v) want(last=%v)", i, last, i == 10)
		}
	}

	step, last, err := f.Step(action)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !step.First() || last {
		t.Errorf("step: expected reset after last step, got %v", step)
	}
	if f.Physics().Time() != 0 {
		t.Errorf("time: have(%v) want(0) after reset", f.Physics().Time())
	}
}

func TestStepErrors(t *testing.T) {
	f := newTestFly(t)
	if _, err := f.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, _, err := f.Step(mat.NewVecDense(ActionDims-1, nil)); err == nil {
		t.Error("step: expected error for wrong action dimensions")
	}
	if _, _, err := f.Step(nil); err == nil {
		t.Error("step: expected error for nil action")
	}

	f.Close()
	if _, _, err := f.Step(mat.NewVecDense(ActionDims, nil)); err == nil {
		t.Error("step: expected error after close")
	}
	if _, err := f.Physics().Render(); err == nil {
		t.Error("render: expected error after close")
	}
}

func TestRender(t *testing.T) {
	f := newTestFly(t)

	img, err := f.Physics().Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if img.Bounds().Dx() != environment.DefaultWidth ||
		img.Bounds().Dy() != environment.DefaultHeight {
		t.Errorf("render: have(%v) want(%vx%v)", img.Bounds(),
			environment.DefaultWidth, environment.DefaultHeight)
	}

	_, _, _, a := img.At(0, 0).RGBA()
	if a == 0 {
		t.Error("render: frame is transparent")
	}

	// The tracking camera is centred on the thorax
	img, err = f.Physics().Render(environment.WithCamera(TrackCamera))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if img.At(0, 0) == img.At(img.Bounds().Dx()/2, img.Bounds().Dy()/2) {
		t.Error("render: thorax not drawn at the centre of the frame")
	}

	for _, id := range []int{TrackCamera, SideCamera} {
		img, err := f.Physics().Render(environment.WithCamera(id),
			environment.WithSize(64, 48))
		if err != nil {
			t.Errorf("render camera %v: %v", id, err)
			continue
		}
		if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
			t.Errorf("render camera %v: have(%v) want(64x48)", id,
				img.Bounds())
		}
	}

	if _, err := f.Physics().Render(environment.WithCamera(Cameras)); err == nil {
		t.Error("render: expected error for invalid camera")
	}
	if _, err := f.Physics().Render(environment.WithSize(0, 10)); err == nil {
		t.Error("render: expected error for empty frame")
	}
}

func TestRenderWings(t *testing.T) {
	f := newTestFly(t)

	img, err := f.Physics().Render(environment.WithCamera(TrackCamera))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	cam, err := f.camera(TrackCamera, img.Bounds().Dx(), img.Bounds().Dy())
	if err != nil {
		t.Fatalf("camera: %v", err)
	}

	// Both wings overlap and are drawn over the sky only
	x, y := cam.toPixel(f.walker.byName["wing_left"].body.GetPosition())
	c := color.NRGBAModel.Convert(img.At(int(x), int(y))).(color.NRGBA)
	if c.B <= c.R || c.R > skyColour.R || c.R < wingColour.R {
		t.Errorf("render: wing pixel have(%v), want a blend of %v and %v",
			c, wingColour, skyColour)
	}
}

func TestActionNames(t *testing.T) {
	f := newTestFly(t)
	names := f.ActionNames()

	want := map[int]string{
		0:          "head",
		1:          "abdomen",
		2:          "wing_left",
		3:          "wing_right",
		4:          "femur_T1_left",
		5:          "tibia_T1_left",
		6:          "femur_T1_right",
		Joints - 1: "tibia_T3_right",
		Joints:     "adhere_tibia_T1_left",
	}
	for i, w := range want {
		if names[i] != w {
			t.Errorf("actionNames: index %v: have(%v) want(%v)", i, names[i], w)
		}
	}
}

func TestCurrentTimeStep(t *testing.T) {
	f := newTestFly(t)
	action := mat.NewVecDense(ActionDims, nil)

	for i := 0; i < 3; i++ {
		step, _, err := f.Step(action)
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
		current := f.CurrentTimeStep()
		if current.Number != step.Number || current.StepType != step.StepType {
			t.Errorf("currentTimeStep: have(%v) want(%v)", current, step)
		}
	}
}

func TestBackendFromEnv(t *testing.T) {
	t.Setenv(render.BackendEnv, render.EGL)
	t.Setenv(render.DeviceEnv, "0")

	env, err := TemplateTask(WithSeed(1))
	if err != nil {
		t.Fatalf("templateTask: %v", err)
	}
	defer env.Close()

	t.Setenv(render.DeviceEnv, "5")
	if _, err := TemplateTask(WithSeed(1)); err == nil {
		t.Error("templateTask: expected error for unavailable egl device")
	}

	t.Setenv(render.BackendEnv, render.GLFW)
	t.Setenv(render.DisplayEnv, "")
	if _, err := TemplateTask(WithSeed(1)); err == nil {
		t.Error("templateTask: expected error for glfw without display")
	}
}

func TestInvalidOptions(t *testing.T) {
	backend, err := render.New(render.OSMesa, "", os.Getenv)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	tests := [][]Option{
		{WithTimeLimit(0)},
		{WithJointFilter(-1)},
		{WithAdhesionFilter(-0.5)},
	}
	for i, opts := range tests {
		opts = append(opts, WithBackend(backend))
		if _, err := TemplateTask(opts...); err == nil {
			t.Errorf("templateTask: expected error for options %v", i)
		}
	}
}

func TestActuatorFilter(t *testing.T) {
	a := &actuator{tau: 0.01}
	a.filter(1.0, 0.01)
	want := 1 - 0.36787944117144233
	if d := a.act - want; d > 1e-12 || d < -1e-12 {
		t.Errorf("filter: have(%v) want(%v)", a.act, want)
	}

	a = &actuator{tau: 0}
	a.filter(0.7, PhysicsTimestep)
	if a.act != 0.7 {
		t.Errorf("filter: unfiltered actuator have(%v) want(%v)", a.act, 0.7)
	}
}
