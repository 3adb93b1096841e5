package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-5

func assertMatEqual(t *testing.T, want, got Mat4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], eps, "element %d", i)
	}
}

func TestMat4MulIdentity(t *testing.T) {
	m := Translation(1, 2, 3).Mul(RotationY(0.7))
	assertMatEqual(t, m, m.Mul(Identity()))
	assertMatEqual(t, m, Identity().Mul(m))
}

func TestMat4MulOrder(t *testing.T) {
	// Rotate first, then translate.
	m := Translation(10, 0, 0).Mul(RotationY(math32.Pi / 2))
	p := m.MulPoint(Vec3{1, 0, 0})
	assert.InDelta(t, 10, p[0], eps)
	assert.InDelta(t, 0, p[1], eps)
	assert.InDelta(t, -1, p[2], eps)
}

func TestMat4Inverse(t *testing.T) {
	m := Translation(5, 10, -12).Mul(RotationY(1.1)).Mul(RotationX(-0.4))
	inv, ok := m.Inverse()
	require.True(t, ok)
	assertMatEqual(t, Identity(), m.Mul(inv))

	_, ok = Mat4{}.Inverse()
	assert.False(t, ok)
}

func TestLookAtMapsEyeToOrigin(t *testing.T) {
	eye := Vec3{5, 10, -12}
	at := Vec3{0, -0.1, 0}
	view := LookAt(eye, at, Vec3{0, 1, 0})

	origin := view.MulPoint(eye)
	assert.InDeltaSlice(t, []float32{0, 0, 0}, origin[:], eps)

	// The target lies straight down -Z in camera space.
	p := view.MulPoint(at)
	assert.InDelta(t, 0, p[0], eps)
	assert.InDelta(t, 0, p[1], eps)
	assert.Less(t, p[2], float32(0))
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := Perspective(DegToRad(70), 16.0/9.0, 0.01, 100)
	clip := func(z float32) float32 {
		// Point on the view axis at camera-space depth z.
		cz := proj[10]*z + proj[14]
		cw := proj[11] * z
		return cz / cw
	}
	assert.InDelta(t, 0, clip(-0.01), 1e-4)
	assert.InDelta(t, 1, clip(-100), 1e-4)
}

func TestWrapAngle(t *testing.T) {
	assert.InDelta(t, 0.5, WrapAngle(TwoPi+0.5), eps)
	assert.InDelta(t, TwoPi-0.5, WrapAngle(-0.5), eps)
	assert.InDelta(t, 0, WrapAngle(0), eps)

	for _, in := range []float32{-1e-9, -1e-8, -TwoPi * 1e-9} {
		got := WrapAngle(in)
		assert.GreaterOrEqual(t, got, float32(0), "input %g", in)
		assert.Less(t, got, float32(TwoPi), "input %g", in)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 0, 4}.Normalize()
	assert.InDelta(t, 1, n.Length(), eps)
	assert.InDelta(t, 0.6, n[0], eps)
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
}

func TestWithPosition(t *testing.T) {
	m := RotationY(0.3).WithPosition(Vec3{1, 2, 3})
	assert.Equal(t, Vec3{1, 2, 3}, m.Position())
	assert.Equal(t, RotationY(0.3)[0], m[0])
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes[float32](nil))
	b := SliceToBytes([]uint32{1, 2})
	assert.Len(t, b, 8)
}
