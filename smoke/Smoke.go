// Package smoke runs a short rollout of random actions in an environment
// and saves a rendered frame, checking that the simulation and
// rendering stack is installed and runnable.
package smoke

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/flysmoke/environment"
	"github.com/samuelfneumann/flysmoke/environment/fly"
	"github.com/samuelfneumann/flysmoke/render"
	"github.com/samuelfneumann/flysmoke/timestep"
	"github.com/samuelfneumann/flysmoke/utils/imageio"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Settings of the smoke run
const (
	Backend = render.EGL
	Device  = 0
	Steps   = 10
	Output  = "fly_render.png"
)

// Factory constructs the environment under test
type Factory func() (environment.Environment, error)

// Script is a smoke run. Its fields hold the fixed settings of the run
// and exist so that tests can redirect its side effects.
type Script struct {
	Backend string
	Device  int
	Steps   int
	Output  string
	Seed    uint64

	Stdout io.Writer
	Logger *slog.Logger
	New    Factory
}

// Default returns the smoke run of the fly template task, printing to
// stdout
func Default(stdout io.Writer) *Script {
	return &Script{
		Backend: Backend,
		Device:  Device,
		Steps:   Steps,
		Output:  Output,
		Seed:    uint64(time.Now().UnixNano()),
		Stdout:  stdout,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		New: func() (environment.Environment, error) {
			return fly.TemplateTask()
		},
	}
}

// Run runs the script, stopping at the first failure
func (s *Script) Run() error {
	// The backend is selected when the environment is constructed, so the
	// process environment must be configured first
	if err := render.Setenv(s.Backend, s.Device); err != nil {
		return fmt.Errorf("run: %v", err)
	}
	s.Logger.Debug("configured render backend", "backend", s.Backend,
		"device", s.Device)

	env, err := s.New()
	if err != nil {
		return fmt.Errorf("run: could not create environment: %v", err)
	}
	defer env.Close()
	fmt.Fprintln(s.Stdout, "Environment created successfully!")

	rng := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(s.Seed)}
	for i := 0; i < s.Steps; i++ {
		spec := env.ActionSpec()
		action := SampleAction(spec, rng)
		if action.Len() != spec.Shape.Len() {
			return fmt.Errorf("run: step %v: sampled %v action dimensions, "+
				"want %v", i, action.Len(), spec.Shape.Len())
		}

		step, _, err := env.Step(action)
		if err != nil {
			return fmt.Errorf("run: step %v: %v", i, err)
		}
		s.Logger.Debug("stepped environment", "step", i,
			"type", step.StepType.String(), "number", step.Number)

		fmt.Fprintf(s.Stdout, "Step %v, reward: %v\n", i, FormatReward(step))
	}

	pixels, err := env.Physics().Render()
	if err != nil {
		return fmt.Errorf("run: could not render: %v", err)
	}
	if pixels.Bounds().Dx() <= 0 || pixels.Bounds().Dy() <= 0 {
		return fmt.Errorf("run: rendered empty frame %v", pixels.Bounds())
	}

	if err := imageio.Save(s.Output, pixels); err != nil {
		return fmt.Errorf("run: %v", err)
	}
	s.Logger.Debug("saved frame", "path", s.Output,
		"width", pixels.Bounds().Dx(), "height", pixels.Bounds().Dy())
	fmt.Fprintf(s.Stdout, "Render saved to %v\n", s.Output)

	return nil
}

// SampleAction samples an action with the shape of spec, drawing each
// element from rng
func SampleAction(spec environment.Spec, rng distuv.Normal) *mat.VecDense {
	action := mat.NewVecDense(spec.Shape.Len(), nil)
	for i := 0; i < action.Len(); i++ {
		action.SetVec(i, rng.Rand())
	}
	return action
}

// FormatReward formats the reward of t, which is None for timesteps
// without a reward. Integral rewards keep a trailing ".0", and
// non-finite rewards are written inf, -inf, and nan.
func FormatReward(t timestep.TimeStep) string {
	switch {
	case !t.HasReward():
		return "None"
	case math.IsNaN(t.Reward):
		return "nan"
	case math.IsInf(t.Reward, 1):
		return "inf"
	case math.IsInf(t.Reward, -1):
		return "-inf"
	}

	format := byte('f')
	if abs := math.Abs(t.Reward); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		format = 'e'
	}

	r := strconv.FormatFloat(t.Reward, format, -1, 64)
	if !strings.ContainsAny(r, ".e") {
		r += ".0"
	}
	return r
}
