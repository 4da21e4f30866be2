package environment

import (
	"math"

	"github.com/samuelfneumann/flysmoke/timestep"
)

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// NewTimeLimit returns a StepLimit which ends episodes once seconds of
// simulated time have passed, given that each step lasts dt seconds
func NewTimeLimit(seconds, dt float64) StepLimit {
	return StepLimit{int(math.Round(seconds / dt))}
}

// Steps returns the number of steps in an episode
func (s StepLimit) Steps() int {
	return s.episodeSteps
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended End() will modify the timestep so that its StepType
// field is timestep.Last
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if t.Number >= s.episodeSteps {
		t.StepType = timestep.Last
		return true
	}
	return false
}
