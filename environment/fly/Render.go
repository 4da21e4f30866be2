package fly

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/fogleman/gg"
	"github.com/samuelfneumann/flysmoke/environment"
)

// Cameras of the model. The environment.FreeCamera is also available.
const (
	TrackCamera int = iota
	SideCamera
	Cameras
)

var (
	skyColour    = color.RGBA{R: 235, G: 240, B: 245, A: 255}
	groundColour = color.RGBA{R: 150, G: 140, B: 120, A: 255}
	tickColour   = color.RGBA{R: 110, G: 100, B: 85, A: 255}
)

// camera maps world coordinates onto the pixels of a frame
type camera struct {
	centre        box2d.B2Vec2
	scale         float64
	width, height float64
}

// toPixel returns the pixel coordinates of the world point v
func (c camera) toPixel(v box2d.B2Vec2) (float64, float64) {
	return c.width/2 + (v.X-c.centre.X)*c.scale,
		c.height/2 - (v.Y-c.centre.Y)*c.scale
}

// toWorldX returns the world x coordinate of the pixel column px
func (c camera) toWorldX(px float64) float64 {
	return c.centre.X + (px-c.width/2)/c.scale
}

// camera returns the camera with the given id for a frame of the given
// size
func (f *Fly) camera(id, width, height int) (camera, error) {
	thorax := f.walker.thorax().body.GetPosition()
	c := camera{width: float64(width), height: float64(height)}

	// Scales are given as the number of world units seen vertically
	switch id {
	case environment.FreeCamera:
		c.centre = box2d.MakeB2Vec2(thorax.X, StandHeight*0.8)
		c.scale = c.height / 5.0
	case TrackCamera:
		c.centre = thorax
		c.scale = c.height / 3.5
	case SideCamera:
		c.centre = box2d.MakeB2Vec2(0, StandHeight)
		c.scale = c.height / 8.0
	default:
		return camera{}, fmt.Errorf("camera: invalid camera id %v, must "+
			"be in [%v, %v)", id, environment.FreeCamera, Cameras)
	}
	return c, nil
}

// Render draws the current state of the environment and returns the
// pixel buffer
func (p *physics) Render(opts ...environment.RenderOption) (image.Image,
	error) {
	f := p.fly
	if f.closed {
		return nil, fmt.Errorf("render: environment is closed")
	}

	config := environment.NewRenderConfig(opts...)
	cam, err := f.camera(config.Camera, config.Width, config.Height)
	if err != nil {
		return nil, fmt.Errorf("render: %v", err)
	}

	dc, err := f.backend.NewCanvas(config.Width, config.Height)
	if err != nil {
		return nil, fmt.Errorf("render: %s backend: %v", f.backend.Name(),
			err)
	}

	dc.SetColor(skyColour)
	dc.Clear()
	drawFloor(dc, cam)

	for _, part := range f.walker.layers {
		drawPart(dc, cam, part)
	}

	return dc.Image(), nil
}

// drawFloor draws the ground and a tick on the floor every unit
func drawFloor(dc *gg.Context, cam camera) {
	_, floorY := cam.toPixel(box2d.MakeB2Vec2(0, 0))
	if floorY < cam.height {
		dc.DrawRectangle(0, math.Max(floorY, 0), cam.width,
			cam.height-math.Max(floorY, 0))
		dc.SetColor(groundColour)
		dc.Fill()
	}

	left := math.Floor(cam.toWorldX(0))
	right := math.Ceil(cam.toWorldX(cam.width))
	for x := left; x <= right; x++ {
		x1, y1 := cam.toPixel(box2d.MakeB2Vec2(x, 0))
		x2, y2 := cam.toPixel(box2d.MakeB2Vec2(x, -0.15))
		dc.DrawLine(x1, y1, x2, y2)
	}
	dc.SetColor(tickColour)
	dc.SetLineWidth(1.0)
	dc.Stroke()
}

// drawPart draws the polygons of a part of the fly
func drawPart(dc *gg.Context, cam camera, p *part) {
	xf := p.body.GetTransform()

	for fix := p.body.GetFixtureList(); fix != nil; fix = fix.M_next {
		shape, ok := fix.M_shape.(*box2d.B2PolygonShape)
		if !ok {
			continue
		}

		dc.ClearPath()
		for i := 0; i < shape.M_count; i++ {
			vertex := box2d.B2TransformVec2Mul(xf, shape.M_vertices[i])
			dc.LineTo(cam.toPixel(vertex))
		}
		dc.ClosePath()

		dc.SetColor(p.colour)
		dc.FillPreserve()
		dc.SetColor(outlineColour)
		dc.SetLineWidth(1.0)
		dc.Stroke()
	}
}
