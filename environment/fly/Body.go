package fly

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/flysmoke/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Walker geometry, in model units. All offsets are given in the frame
// of the thorax, x pointing forward and y pointing up.
const (
	ThoraxHalfLength float64 = 0.6
	ThoraxHalfHeight float64 = 0.3

	FemurHalfLength float64 = 0.3
	TibiaHalfLength float64 = 0.3

	// StandHeight is the height of the thorax centre above the floor
	// when all legs are straight
	StandHeight float64 = ThoraxHalfHeight + 2*FemurHalfLength +
		2*TibiaHalfLength

	FloorHalfWidth float64 = 100.0
	Density        float64 = 1.0
	Friction       float64 = 1.0

	// Fly parts share a negative group so they never collide with each
	// other
	flyGroup int16 = -1
)

// Drawing layers, from back to front
const (
	layerWings = iota
	layerFarLegs
	layerBody
	layerNearLegs
)

var (
	Legs  = []string{"T1", "T2", "T3"}
	Sides = []string{"left", "right"}

	// legX holds the x offset of the coxa of each leg pair from the
	// thorax centre
	legX = map[string]float64{"T1": 0.35, "T2": 0.0, "T3": -0.35}
)

var (
	thoraxColour  = color.NRGBA{R: 140, G: 98, B: 57, A: 255}
	headColour    = color.NRGBA{R: 160, G: 60, B: 45, A: 255}
	abdomenColour = color.NRGBA{R: 120, G: 90, B: 60, A: 255}
	wingColour    = color.NRGBA{R: 200, G: 215, B: 230, A: 200}
	nearLegColour = color.NRGBA{R: 95, G: 70, B: 45, A: 255}
	farLegColour  = color.NRGBA{R: 60, G: 45, B: 30, A: 255}
	outlineColour = color.NRGBA{R: 30, G: 25, B: 20, A: 255}
)

// partDef describes a rigid part of the fly and the hinge joint that
// connects it to its parent
type partDef struct {
	name   string
	parent string

	centre       [2]float64
	halfW, halfH float64

	anchor [2]float64
	limits r1.Interval
	torque float64

	layer  int
	colour color.Color
}

// part is a rigid part of the fly in a Box2D world
type part struct {
	name   string
	body   *box2d.B2Body
	halfH  float64
	layer  int
	colour color.Color
}

// tip returns the lowest point of the part in its own frame
func (p *part) tip() box2d.B2Vec2 {
	return box2d.MakeB2Vec2(0, -p.halfH)
}

// partDefs returns the parts of the fly. Every part comes after its
// parent, and the joint of the i-th non-thorax part is driven by the
// i-th position actuator.
func partDefs() []partDef {
	defs := []partDef{
		{
			name: "thorax", centre: [2]float64{0, 0},
			halfW: ThoraxHalfLength, halfH: ThoraxHalfHeight,
			layer: layerBody, colour: thoraxColour,
		},
		{
			name: "head", parent: "thorax",
			centre: [2]float64{0.85, 0.1}, halfW: 0.22, halfH: 0.22,
			anchor: [2]float64{0.62, 0.1},
			limits: r1.Interval{Min: -0.4, Max: 0.4}, torque: 2.0,
			layer: layerBody, colour: headColour,
		},
		{
			name: "abdomen", parent: "thorax",
			centre: [2]float64{-1.25, -0.05}, halfW: 0.7, halfH: 0.25,
			anchor: [2]float64{-0.58, 0.0},
			limits: r1.Interval{Min: -0.3, Max: 0.3}, torque: 3.0,
			layer: layerBody, colour: abdomenColour,
		},
	}

	for _, side := range Sides {
		defs = append(defs, partDef{
			name: "wing_" + side, parent: "thorax",
			centre: [2]float64{-0.7, 0.38}, halfW: 0.8, halfH: 0.06,
			anchor: [2]float64{0.05, 0.32},
			limits: r1.Interval{Min: -1.2, Max: 0.2}, torque: 1.0,
			layer: layerWings, colour: wingColour,
		})
	}

	for _, leg := range Legs {
		for _, side := range Sides {
			layer, colour := layerNearLegs, color.Color(nearLegColour)
			if side == "right" {
				layer, colour = layerFarLegs, farLegColour
			}
			x := legX[leg]
			femur := fmt.Sprintf("femur_%v_%v", leg, side)

			defs = append(defs,
				partDef{
					name: femur, parent: "thorax",
					centre: [2]float64{x, -ThoraxHalfHeight - FemurHalfLength},
					halfW: 0.04, halfH: FemurHalfLength,
					anchor: [2]float64{x, -ThoraxHalfHeight},
					limits: r1.Interval{Min: -0.8, Max: 0.8}, torque: 8.0,
					layer: layer, colour: colour,
				},
				partDef{
					name: fmt.Sprintf("tibia_%v_%v", leg, side), parent: femur,
					centre: [2]float64{x, -ThoraxHalfHeight -
						2*FemurHalfLength - TibiaHalfLength},
					halfW: 0.035, halfH: TibiaHalfLength,
					anchor: [2]float64{x, -ThoraxHalfHeight -
						2*FemurHalfLength},
					limits: r1.Interval{Min: -0.9, Max: 0.9}, torque: 8.0,
					layer: layer, colour: colour,
				},
			)
		}
	}
	return defs
}

// walker holds the bodies and joints of a fly in a Box2D world
type walker struct {
	parts  []*part
	byName map[string]*part
	joints []*box2d.B2RevoluteJoint
	limits []r1.Interval
	tarsi  []*part

	// drawing order, back to front
	layers []*part
}

// thorax returns the root part of the walker
func (w *walker) thorax() *part {
	return w.parts[0]
}

// newFloor adds the static floor of the arena to world
func newFloor(world *box2d.B2World) *box2d.B2Body {
	bd := box2d.MakeB2BodyDef()
	floor := world.CreateBody(&bd)

	shape := box2d.NewB2EdgeShape()
	shape.Set(box2d.MakeB2Vec2(-FloorHalfWidth, 0),
		box2d.MakeB2Vec2(FloorHalfWidth, 0))

	fd := box2d.MakeB2FixtureDef()
	fd.Shape = shape
	fd.Friction = Friction
	floor.CreateFixtureFromDef(&fd)

	return floor
}

// newWalker builds a fly in world. The start vector holds the x and y
// position of the thorax centre and the pitch of the thorax.
func newWalker(world *box2d.B2World, start *mat.VecDense) (*walker, error) {
	if start.Len() != StartDims {
		return nil, fmt.Errorf("newWalker: invalid start state dimensions "+
			"\n\thave(%v) \n\twant(%v)", start.Len(), StartDims)
	}
	x, y, pitch := start.AtVec(0), start.AtVec(1), start.AtVec(2)
	sin, cos := math.Sincos(pitch)

	toWorld := func(local [2]float64) box2d.B2Vec2 {
		return box2d.MakeB2Vec2(
			x+cos*local[0]-sin*local[1],
			y+sin*local[0]+cos*local[1],
		)
	}

	w := &walker{byName: make(map[string]*part)}
	for _, def := range partDefs() {
		bd := box2d.MakeB2BodyDef()
		bd.Type = box2d.B2BodyType.B2_dynamicBody
		bd.Position = toWorld(def.centre)
		bd.Angle = pitch
		body := world.CreateBody(&bd)

		shape := box2d.MakeB2PolygonShape()
		shape.SetAsBox(def.halfW, def.halfH)

		fd := box2d.MakeB2FixtureDef()
		fd.Shape = &shape
		fd.Density = Density
		fd.Friction = Friction
		fd.Filter.GroupIndex = flyGroup
		body.CreateFixtureFromDef(&fd)

		p := &part{
			name:   def.name,
			body:   body,
			halfH:  def.halfH,
			layer:  def.layer,
			colour: def.colour,
		}
		w.parts = append(w.parts, p)
		w.byName[def.name] = p

		if def.parent == "" {
			continue
		}
		parent, ok := w.byName[def.parent]
		if !ok {
			return nil, fmt.Errorf("newWalker: part %v defined before its "+
				"parent %v", def.name, def.parent)
		}

		jd := box2d.MakeB2RevoluteJointDef()
		jd.Initialize(parent.body, body, toWorld(def.anchor))
		jd.EnableLimit = true
		jd.LowerAngle = def.limits.Min
		jd.UpperAngle = def.limits.Max
		jd.EnableMotor = true
		jd.MaxMotorTorque = def.torque
		joint := world.CreateJoint(&jd).(*box2d.B2RevoluteJoint)

		w.joints = append(w.joints, joint)
		w.limits = append(w.limits, def.limits)
	}

	for _, leg := range Legs {
		for _, side := range Sides {
			w.tarsi = append(w.tarsi,
				w.byName[fmt.Sprintf("tibia_%v_%v", leg, side)])
		}
	}

	w.layers = make([]*part, len(w.parts))
	copy(w.layers, w.parts)
	sort.SliceStable(w.layers, func(i, j int) bool {
		return w.layers[i].layer < w.layers[j].layer
	})

	return w, nil
}

// finite returns whether the state of every part is finite
func (w *walker) finite() bool {
	for _, p := range w.parts {
		pos, vel := p.body.GetPosition(), p.body.GetLinearVelocity()
		if !floatutils.Finite(pos.X, pos.Y, p.body.GetAngle(), vel.X, vel.Y,
			p.body.GetAngularVelocity()) {
			return false
		}
	}
	return true
}
