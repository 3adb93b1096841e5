package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/input"
	"github.com/stretchr/testify/assert"
)

const eps = 1e-4

func assertVecNear(t *testing.T, want, got common.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], eps, "component %d", i)
	}
}

func TestNewCameraStartsAtEye(t *testing.T) {
	c := NewCamera()
	assertVecNear(t, common.Vec3{5, 10, -12}, c.Position())

	// The view matrix maps the eye to the origin.
	assertVecNear(t, common.Vec3{}, c.ViewMatrix().MulPoint(c.Position()))
}

func TestSetAspectDoublesFovForPortrait(t *testing.T) {
	c := NewCamera(WithFov(common.DegToRad(40)))

	c.SetAspect(2)
	landscape := c.ProjectionMatrix()
	c.SetAspect(0.5)
	portrait := c.ProjectionMatrix()

	want := common.Perspective(common.DegToRad(80), 0.5, 0.01, 100)
	assert.InDelta(t, want[5], portrait[5], eps)
	assert.Greater(t, landscape[5], portrait[5])
	assert.Equal(t, common.DegToRad(40), c.Fov())
}

func TestFlyControllerMovesTowardTarget(t *testing.T) {
	c := NewCamera(WithController(NewFlyController(WithMoveSpeed(2))))
	start := c.Position()
	forward := common.Vec3{0, -0.1, 0}.Sub(start).Normalize()

	var s input.State
	s.Keys[common.KeyW] = true
	c.Update(s, 0.5)

	moved := c.Position().Sub(start)
	assert.InDelta(t, 1, moved.Length(), eps)
	assertVecNear(t, forward, moved.Normalize())
}

func TestFlyControllerStrafeAndClimbCancel(t *testing.T) {
	fc := NewFlyController()
	var s input.State
	s.Keys[common.KeyA] = true
	s.Keys[common.KeyD] = true
	s.Keys[common.KeyX] = true
	s.Keys[common.KeySpace] = true

	world := common.Translation(1, 2, 3)
	assert.Equal(t, world, fc.Apply(world, s, 1))
}

func TestFlyControllerRotationKeepsPosition(t *testing.T) {
	c := NewCamera(WithController(NewFlyController()))
	start := c.World()

	s := input.State{
		Pointer:        input.Pointer{X: 110, Y: 95, RightButton: true},
		PrevPointer:    input.Pointer{X: 100, Y: 100},
		HasPointer:     true,
		HasPrevPointer: true,
	}
	c.Update(s, 0.016)

	after := c.World()
	assert.Equal(t, start.Position(), after.Position())
	assert.NotEqual(t, start, after)

	// Without the right button the drag is ignored.
	s.Pointer.RightButton = false
	c.Update(s, 0.016)
	assert.Equal(t, after, c.World())
}

func TestResetRestoresStartingView(t *testing.T) {
	c := NewCamera(WithController(NewFlyController()))
	start := c.World()

	c.SetWorld(common.Translation(0, 0, 0))
	c.Reset()
	assert.Equal(t, start, c.World())
}
