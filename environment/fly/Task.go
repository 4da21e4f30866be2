package fly

import (
	"fmt"
	"time"

	"github.com/samuelfneumann/flysmoke/environment"
	"github.com/samuelfneumann/flysmoke/render"
	ts "github.com/samuelfneumann/flysmoke/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Default template task settings
const (
	DefaultTimeLimit      float64 = 1.0
	DefaultJointFilter    float64 = 0.01
	DefaultAdhesionFilter float64 = 0.01

	// Maximum drop of the thorax above StandHeight and maximum pitch of
	// the thorax at the start of an episode
	StartDrop  float64 = 0.05
	StartPitch float64 = 0.05
)

// Template implements the template task, the minimal task for the fly:
// every step is rewarded equally and episodes end on a time limit
type Template struct {
	environment.Starter
	environment.StepLimit
}

// NewTemplate returns a new template task which samples starting states
// from s and ends episodes after timeLimit seconds
func NewTemplate(s environment.Starter, timeLimit float64) *Template {
	return &Template{
		Starter:   s,
		StepLimit: environment.NewTimeLimit(timeLimit, ControlTimestep),
	}
}

// GetReward returns the reward for a transition, which is 1.0 for
// every transition
func (t *Template) GetReward(_ ts.TimeStep, _, _ *mat.VecDense) float64 {
	return 1.0
}

// NewStarter returns the default starter of fly tasks. The fly starts
// at x = 0, slightly above standing height, slightly pitched.
func NewStarter(seed uint64) environment.UniformStarter {
	return environment.NewUniformStarter([]r1.Interval{
		{Min: 0, Max: 0},
		{Min: StandHeight, Max: StandHeight + StartDrop},
		{Min: -StartPitch, Max: StartPitch},
	}, seed)
}

type config struct {
	seed           uint64
	timeLimit      float64
	jointFilter    float64
	adhesionFilter float64
	backend        render.Backend
}

// Option configures the template task
type Option func(*config)

// WithSeed sets the seed of the starting state distribution
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithTimeLimit sets the episode length in seconds
func WithTimeLimit(seconds float64) Option {
	return func(c *config) {
		c.timeLimit = seconds
	}
}

// WithJointFilter sets the time constant of the joint actuator filters
func WithJointFilter(tau float64) Option {
	return func(c *config) {
		c.jointFilter = tau
	}
}

// WithAdhesionFilter sets the time constant of the adhesion actuator
// filters
func WithAdhesionFilter(tau float64) Option {
	return func(c *config) {
		c.adhesionFilter = tau
	}
}

// WithBackend sets the render backend. By default the backend is
// selected from the process environment when the task is constructed.
func WithBackend(b render.Backend) Option {
	return func(c *config) {
		c.backend = b
	}
}

// TemplateTask returns a new fly environment running the template task
func TemplateTask(opts ...Option) (environment.Environment, error) {
	c := config{
		seed:           uint64(time.Now().UnixNano()),
		timeLimit:      DefaultTimeLimit,
		jointFilter:    DefaultJointFilter,
		adhesionFilter: DefaultAdhesionFilter,
	}
	for _, opt := range opts {
		opt(&c)
	}

	if c.timeLimit < ControlTimestep {
		return nil, fmt.Errorf("templateTask: time limit %v shorter than "+
			"control timestep %v", c.timeLimit, ControlTimestep)
	}

	if c.backend == nil {
		b, err := render.FromEnv()
		if err != nil {
			return nil, fmt.Errorf("templateTask: %v", err)
		}
		c.backend = b
	}

	task := NewTemplate(NewStarter(c.seed), c.timeLimit)
	f, err := New(task, c.backend, c.jointFilter, c.adhesionFilter)
	if err != nil {
		return nil, fmt.Errorf("templateTask: %v", err)
	}
	return f, nil
}
