// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"image"

	"github.com/samuelfneumann/flysmoke/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme and episode boundaries for taking
// actions in some environment
type Task interface {
	Starter
	Ender
	GetReward(t timestep.TimeStep, a, next *mat.VecDense) float64
}

// Physics gives access to the simulated world underlying an
// environment
type Physics interface {
	// Render draws the current state of the world to a pixel buffer
	Render(opts ...RenderOption) (image.Image, error)

	// Time returns the simulated time in seconds since the last reset
	Time() float64

	// Timestep returns the duration of a single physics step in seconds
	Timestep() float64
}

// Environment implements a simulated environment, which includes a Task to
// complete.
//
// A newly constructed Environment has not been reset. Calling Step while
// a reset is pending, either before the first Reset or after a Last
// TimeStep, ignores the action and returns the First TimeStep of a new
// episode.
type Environment interface {
	Task
	Reset() (timestep.TimeStep, error)
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
	Physics() Physics
	Close() error
}
