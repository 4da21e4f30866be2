package fly

import "github.com/ByteArena/box2d"

// contactDetector tracks which tarsi touch the floor
type contactDetector struct {
	floor    *box2d.B2Body
	tarsi    map[*box2d.B2Body]bool
	contacts map[*box2d.B2Body]int
}

func newContactDetector(floor *box2d.B2Body, w *walker) *contactDetector {
	tarsi := make(map[*box2d.B2Body]bool, len(w.tarsi))
	for _, t := range w.tarsi {
		tarsi[t.body] = true
	}

	return &contactDetector{
		floor:    floor,
		tarsi:    tarsi,
		contacts: make(map[*box2d.B2Body]int),
	}
}

// tarsus returns the tarsus touched by contact if the contact is
// between a tarsus and the floor
func (c *contactDetector) tarsus(contact box2d.B2ContactInterface) (
	*box2d.B2Body, bool) {
	a := contact.GetFixtureA().GetBody()
	b := contact.GetFixtureB().GetBody()

	switch {
	case a == c.floor && c.tarsi[b]:
		return b, true
	case b == c.floor && c.tarsi[a]:
		return a, true
	default:
		return nil, false
	}
}

func (c *contactDetector) BeginContact(contact box2d.B2ContactInterface) {
	if t, ok := c.tarsus(contact); ok {
		c.contacts[t]++
	}
}

func (c *contactDetector) EndContact(contact box2d.B2ContactInterface) {
	if t, ok := c.tarsus(contact); ok && c.contacts[t] > 0 {
		c.contacts[t]--
	}
}

func (c *contactDetector) PreSolve(contact box2d.B2ContactInterface,
	oldManifold box2d.B2Manifold) {
}

func (c *contactDetector) PostSolve(contact box2d.B2ContactInterface,
	impulse *box2d.B2ContactImpulse) {
}

// touching returns whether body touches the floor
func (c *contactDetector) touching(body *box2d.B2Body) bool {
	return c.contacts[body] > 0
}
