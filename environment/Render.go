package environment

// Default render settings. A camera of FreeCamera renders from a camera
// that is not attached to the model.
const (
	DefaultWidth  int = 320
	DefaultHeight int = 240
	FreeCamera    int = -1
)

// RenderConfig holds the settings of a single Physics.Render call
type RenderConfig struct {
	Width  int
	Height int
	Camera int
}

// RenderOption modifies a RenderConfig
type RenderOption func(*RenderConfig)

// WithSize sets the width and height of the rendered frame in pixels
func WithSize(width, height int) RenderOption {
	return func(c *RenderConfig) {
		c.Width = width
		c.Height = height
	}
}

// WithCamera sets the camera to render from
func WithCamera(id int) RenderOption {
	return func(c *RenderConfig) {
		c.Camera = id
	}
}

// NewRenderConfig returns the default RenderConfig with opts applied
func NewRenderConfig(opts ...RenderOption) RenderConfig {
	c := RenderConfig{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Camera: FreeCamera,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
