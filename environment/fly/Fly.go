// Package fly implements a planar fruit fly walking on a flat floor.
//
// The fly is made of a thorax, head, abdomen, two wings and six legs of
// two segments each, joined by hinges. It is simulated in a Box2D world
// seen from the side. Each hinge is driven by a position actuator, and
// each leg carries an adhesion actuator at its tarsus which pulls the
// leg into the floor while they touch. Actuator activations follow
// their controls through first-order filters.
//
// Actions have ActionDims dimensions, in the order given by
// (*Fly).ActionNames. Position controls lie in [-1, 1] and are mapped
// linearly onto the range of their joint; adhesion controls lie in
// [0, 1]. Controls outside of these bounds are clipped.
//
// Observations have ObservationDims dimensions: the angle and the
// velocity of every joint, the height of the thorax, the sine and
// cosine of its pitch, its linear and angular velocity, and one
// contact flag per tarsus.
package fly

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/flysmoke/environment"
	"github.com/samuelfneumann/flysmoke/render"
	ts "github.com/samuelfneumann/flysmoke/timestep"
	"gonum.org/v1/gonum/mat"
)

// Simulation constants
const (
	PhysicsTimestep float64 = 2e-4
	ControlTimestep float64 = 2e-3

	Gravity  float64 = -9.81
	Discount float64 = 1.0

	velocityIterations int = 8
	positionIterations int = 3
)

// Dimensions of the start states, actions, and observations
const (
	StartDims       int = 3
	Joints          int = 16
	Tarsi           int = 6
	ActionDims      int = Joints + Tarsi
	ObservationDims int = 2*Joints + 6 + Tarsi
)

// Fly implements the environment.Environment interface for a fruit fly
// walker and a Task
type Fly struct {
	environment.Task

	backend        render.Backend
	jointFilter    float64
	adhesionFilter float64
	substeps       int

	world     box2d.B2World
	floor     *box2d.B2Body
	walker    *walker
	actuators actuators
	contacts  *contactDetector
	time      float64

	currentStep ts.TimeStep
	resetNext   bool
	closed      bool
}

// New returns a new Fly completing task t. Frames are rendered with
// backend. The jointFilter and adhesionFilter arguments are the time
// constants, in seconds, of the filters on the joint and adhesion
// actuators.
//
// The returned Fly has not been reset, and its first call to Step will
// return the First TimeStep of an episode.
func New(t environment.Task, backend render.Backend, jointFilter,
	adhesionFilter float64) (*Fly, error) {
	if backend == nil {
		return nil, fmt.Errorf("new: backend should not be nil")
	}
	if jointFilter < 0 || adhesionFilter < 0 {
		return nil, fmt.Errorf("new: filter time constants should be "+
			"non-negative, got %v and %v", jointFilter, adhesionFilter)
	}

	f := &Fly{
		Task:           t,
		backend:        backend,
		jointFilter:    jointFilter,
		adhesionFilter: adhesionFilter,
		substeps:       int(math.Round(ControlTimestep / PhysicsTimestep)),
	}

	if err := f.build(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	f.resetNext = true

	return f, nil
}

// build replaces the world with a new one holding a floor and a fly in
// a state sampled from the Task
func (f *Fly) build() error {
	f.world = box2d.MakeB2World(box2d.MakeB2Vec2(0, Gravity))
	f.floor = newFloor(&f.world)

	w, err := newWalker(&f.world, f.Start())
	if err != nil {
		return fmt.Errorf("build: %v", err)
	}
	f.walker = w

	f.contacts = newContactDetector(f.floor, w)
	f.world.SetContactListener(f.contacts)
	f.actuators = newActuators(w, f.jointFilter, f.adhesionFilter)
	f.time = 0

	return nil
}

// Reset resets the environment to a new starting state and returns the
// First TimeStep of the episode
func (f *Fly) Reset() (ts.TimeStep, error) {
	if f.closed {
		return ts.TimeStep{}, fmt.Errorf("reset: environment is closed")
	}
	if err := f.build(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	t := ts.New(ts.First, 0, Discount, f.observation(), 0)
	f.currentStep = t
	f.resetNext = false

	return t, nil
}

// Step takes one control step in the environment using action a. If a
// reset is pending, the action is ignored and the environment is reset
// instead.
func (f *Fly) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if f.closed {
		return ts.TimeStep{}, true, fmt.Errorf("step: environment is closed")
	}
	if f.resetNext {
		t, err := f.Reset()
		return t, false, err
	}
	if a == nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: action should not " +
			"be nil")
	}

	ctrl, err := f.ActionSpec().Clip(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %v", err)
	}

	for i := 0; i < f.substeps; i++ {
		err := f.actuators.step(ctrl, PhysicsTimestep, f.contacts)
		if err != nil {
			return ts.TimeStep{}, true, fmt.Errorf("step: %v", err)
		}
		f.world.Step(PhysicsTimestep, velocityIterations, positionIterations)
		f.time += PhysicsTimestep
	}

	if !f.walker.finite() {
		f.resetNext = true
		return ts.TimeStep{}, true, fmt.Errorf("step: physics diverged at "+
			"time %.4f", f.time)
	}

	obs := f.observation()
	reward := f.GetReward(f.currentStep, ctrl, obs)
	t := ts.New(ts.Mid, reward, Discount, obs, f.currentStep.Number+1)
	last := f.End(&t)
	f.currentStep = t
	f.resetNext = last

	return t, last, nil
}

// CurrentTimeStep returns the last TimeStep that occurred in the
// environment
func (f *Fly) CurrentTimeStep() ts.TimeStep {
	return f.currentStep
}

// observation returns the current observation of the fly
func (f *Fly) observation() *mat.VecDense {
	obs := make([]float64, 0, ObservationDims)

	for _, j := range f.walker.joints {
		obs = append(obs, j.GetJointAngle())
	}
	for _, j := range f.walker.joints {
		obs = append(obs, j.GetJointSpeed())
	}

	thorax := f.walker.thorax().body
	sin, cos := math.Sincos(thorax.GetAngle())
	vel := thorax.GetLinearVelocity()
	obs = append(obs, thorax.GetPosition().Y, sin, cos, vel.X, vel.Y,
		thorax.GetAngularVelocity())

	for _, t := range f.walker.tarsi {
		contact := 0.0
		if f.contacts.touching(t.body) {
			contact = 1.0
		}
		obs = append(obs, contact)
	}

	return mat.NewVecDense(len(obs), obs)
}

// ActionNames returns the names of the actuators in action order
func (f *Fly) ActionNames() []string {
	return f.actuators.names()
}

// Activations returns the current activations of the actuators in
// action order
func (f *Fly) Activations() []float64 {
	return f.actuators.activations()
}

// ActionSpec returns the action specification of the environment
func (f *Fly) ActionSpec() environment.Spec {
	low, high := f.actuators.bounds()

	return environment.NewSpec(mat.NewVecDense(len(low), nil),
		environment.Action, mat.NewVecDense(len(low), low),
		mat.NewVecDense(len(high), high), environment.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (f *Fly) ObservationSpec() environment.Spec {
	low := make([]float64, ObservationDims)
	high := make([]float64, ObservationDims)
	for i := range low {
		low[i] = math.Inf(-1)
		high[i] = math.Inf(1)
	}

	// Pitch
	for i := 2*Joints + 1; i < 2*Joints+3; i++ {
		low[i], high[i] = -1, 1
	}

	// Contacts
	for i := ObservationDims - Tarsi; i < ObservationDims; i++ {
		low[i], high[i] = 0, 1
	}

	return environment.NewSpec(mat.NewVecDense(ObservationDims, nil),
		environment.Observation, mat.NewVecDense(ObservationDims, low),
		mat.NewVecDense(ObservationDims, high), environment.Continuous)
}

// DiscountSpec returns the discount specification of the environment
func (f *Fly) DiscountSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{Discount})

	return environment.NewSpec(shape, environment.Discount, bound, bound,
		environment.Continuous)
}

// Physics returns the simulated world of the environment
func (f *Fly) Physics() environment.Physics {
	return &physics{f}
}

// Close performs resource cleanup after the environment is no longer
// needed
func (f *Fly) Close() error {
	if f.closed {
		return nil
	}
	f.world.SetContactListener(nil)
	for _, p := range f.walker.parts {
		f.world.DestroyBody(p.body)
	}
	f.world.DestroyBody(f.floor)
	f.closed = true

	return nil
}

// physics implements environment.Physics for a Fly
type physics struct {
	fly *Fly
}

// Time returns the simulated time since the last reset in seconds
func (p *physics) Time() float64 {
	return p.fly.time
}

// Timestep returns the duration of one physics step in seconds
func (p *physics) Timestep() float64 {
	return PhysicsTimestep
}
