package fly

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/flysmoke/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Actuator constants
const (
	// PositionGain converts a joint position error in radians into a
	// motor speed in radians per second
	PositionGain  float64 = 40.0
	MaxMotorSpeed float64 = 20.0

	// AdhesionForce is the force a fully activated tarsus pulls into
	// the floor with while touching it
	AdhesionForce float64 = 5.0
)

var (
	positionCtrl = r1.Interval{Min: -1.0, Max: 1.0}
	adhesionCtrl = r1.Interval{Min: 0.0, Max: 1.0}
)

type actuatorKind int

const (
	position actuatorKind = iota
	adhesion
)

// actuator converts a control signal into forces on the walker. Its
// activation follows the control through an exact first-order filter
// with time constant tau.
type actuator struct {
	name string
	kind actuatorKind
	ctrl r1.Interval
	tau  float64
	act  float64

	// position actuators
	joint  *box2d.B2RevoluteJoint
	limits r1.Interval

	// adhesion actuators
	tarsus *part
}

// filter advances the activation of the actuator by dt seconds towards
// ctrl
func (a *actuator) filter(ctrl, dt float64) {
	if a.tau <= 0 {
		a.act = ctrl
		return
	}
	a.act += (ctrl - a.act) * (1 - math.Exp(-dt/a.tau))
}

// apply applies the current activation of the actuator to the walker
func (a *actuator) apply(contacts *contactDetector) {
	switch a.kind {
	case position:
		target := floatutils.Lerp(a.act, a.limits)
		speed := PositionGain * (target - a.joint.GetJointAngle())
		a.joint.SetMotorSpeed(floatutils.Clip(speed, -MaxMotorSpeed,
			MaxMotorSpeed))

	case adhesion:
		if !contacts.touching(a.tarsus.body) {
			return
		}
		body := a.tarsus.body
		tip := body.GetWorldPoint(a.tarsus.tip())
		body.ApplyForce(box2d.MakeB2Vec2(0, -AdhesionForce*a.act), tip, true)
	}
}

// actuators holds the actuators of a walker in action order
type actuators []*actuator

// newActuators returns the actuators of w. Position actuators start with
// the activation that holds their joint at its current angle, and
// adhesion actuators start inactive.
func newActuators(w *walker, jointFilter, adhesionFilter float64) actuators {
	a := make(actuators, 0, len(w.joints)+len(w.tarsi))

	for i, joint := range w.joints {
		limits := w.limits[i]
		rest := 2*(joint.GetJointAngle()-limits.Min)/
			(limits.Max-limits.Min) - 1

		a = append(a, &actuator{
			name:   w.parts[i+1].name,
			kind:   position,
			ctrl:   positionCtrl,
			tau:    jointFilter,
			act:    floatutils.ClipInterval(rest, positionCtrl),
			joint:  joint,
			limits: limits,
		})
	}

	for _, tarsus := range w.tarsi {
		a = append(a, &actuator{
			name:   "adhere_" + tarsus.name,
			kind:   adhesion,
			ctrl:   adhesionCtrl,
			tau:    adhesionFilter,
			tarsus: tarsus,
		})
	}
	return a
}

// step filters ctrl into the activations of the actuators over dt
// seconds and applies them to the walker
func (a actuators) step(ctrl *mat.VecDense, dt float64,
	contacts *contactDetector) error {
	if ctrl.Len() != len(a) {
		return fmt.Errorf("step: invalid number of action dimensions \n\t"+
			"have(%v) \n\twant(%v)", ctrl.Len(), len(a))
	}

	for i, act := range a {
		act.filter(ctrl.AtVec(i), dt)
		act.apply(contacts)
	}
	return nil
}

// activations returns the current activations of the actuators
func (a actuators) activations() []float64 {
	acts := make([]float64, len(a))
	for i, act := range a {
		acts[i] = act.act
	}
	return acts
}

// bounds returns the lower and upper control bounds of the actuators
func (a actuators) bounds() (low, high []float64) {
	low = make([]float64, len(a))
	high = make([]float64, len(a))
	for i, act := range a {
		low[i] = act.ctrl.Min
		high[i] = act.ctrl.Max
	}
	return low, high
}

// names returns the names of the actuators
func (a actuators) names() []string {
	names := make([]string, len(a))
	for i, act := range a {
		names[i] = act.name
	}
	return names
}
