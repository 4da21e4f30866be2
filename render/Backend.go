// Package render selects the backend that frames of an environment are
// rasterized with.
//
// The backend is chosen through the same process environment variables
// that MuJoCo-based simulators read: MUJOCO_GL names the backend and
// MUJOCO_EGL_DEVICE_ID selects the device of the egl backend. All
// backends rasterize on the CPU, but each one enforces the availability
// rules of the backend it stands in for, so that a misconfigured
// process fails at environment construction rather than at the first
// frame.
package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
)

// Environment variables read by Load
const (
	BackendEnv = "MUJOCO_GL"
	DeviceEnv  = "MUJOCO_EGL_DEVICE_ID"
	DisplayEnv = "DISPLAY"
)

// Backend names
const (
	EGL    = "egl"
	OSMesa = "osmesa"
	GLFW   = "glfw"
)

const (
	// EGLDevices is the number of devices available to the egl backend
	EGLDevices int = 1

	// Size of the offscreen buffer frames are drawn into
	MaxWidth  int = 2048
	MaxHeight int = 2048
)

// Backend allocates drawing surfaces for rendering frames
type Backend interface {
	Name() string
	Device() int
	NewCanvas(width, height int) (*gg.Context, error)
}

type backend struct {
	name   string
	device int
}

// Name returns the name of the backend
func (b *backend) Name() string {
	return b.name
}

// Device returns the device index the backend renders on
func (b *backend) Device() int {
	return b.device
}

// NewCanvas returns a new drawing context of the given size
func (b *backend) NewCanvas(width, height int) (*gg.Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("newCanvas: invalid frame size %vx%v",
			width, height)
	}
	if width > MaxWidth || height > MaxHeight {
		return nil, fmt.Errorf("newCanvas: frame size %vx%v exceeds "+
			"offscreen buffer %vx%v", width, height, MaxWidth, MaxHeight)
	}
	return gg.NewContext(width, height), nil
}

func (b *backend) String() string {
	return fmt.Sprintf("%v:%v", b.name, b.device)
}

// New returns the backend called name, rendering on device. The device
// string is only consulted by the egl backend, where an empty string
// selects device 0.
func New(name, device string, getenv func(string) string) (Backend, error) {
	switch strings.ToLower(name) {
	case EGL:
		id := 0
		if device != "" {
			var err error
			id, err = strconv.Atoi(device)
			if err != nil {
				return nil, fmt.Errorf("new: %v must be an integer, got %q",
					DeviceEnv, device)
			}
		}
		if id < 0 || id >= EGLDevices {
			return nil, fmt.Errorf("new: %v=%v is out of range, %v egl "+
				"device(s) available", DeviceEnv, id, EGLDevices)
		}
		return &backend{EGL, id}, nil

	case OSMesa:
		return &backend{OSMesa, 0}, nil

	case GLFW, "":
		if getenv(DisplayEnv) == "" {
			return nil, fmt.Errorf("new: %v backend requires a display but "+
				"%v is not set", GLFW, DisplayEnv)
		}
		return &backend{GLFW, 0}, nil

	default:
		return nil, fmt.Errorf("new: unsupported %v backend %q, must be one "+
			"of %q, %q, %q", BackendEnv, name, EGL, OSMesa, GLFW)
	}
}

// Load selects the backend named by the environment variables returned
// by getenv
func Load(getenv func(string) string) (Backend, error) {
	return New(getenv(BackendEnv), getenv(DeviceEnv), getenv)
}

// FromEnv selects the backend named by the process environment
func FromEnv() (Backend, error) {
	return Load(os.Getenv)
}

// Setenv configures the process environment so that later calls to
// FromEnv select the backend called name rendering on device
func Setenv(name string, device int) error {
	if err := os.Setenv(BackendEnv, name); err != nil {
		return fmt.Errorf("setenv: %v", err)
	}
	if err := os.Setenv(DeviceEnv, strconv.Itoa(device)); err != nil {
		return fmt.Errorf("setenv: %v", err)
	}
	return nil
}
