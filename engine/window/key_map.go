package window

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwKeys maps the non-printable GLFW keys the scene reacts to onto virtual key codes.
// Reference: https://www.glfw.org/docs/latest/group__keys.html
var glfwKeys = map[glfw.Key]uint32{
	glfw.KeyBackspace:  common.KeyBackspace,
	glfw.KeyTab:        common.KeyTab,
	glfw.KeyEnter:      common.KeyEnter,
	glfw.KeyEscape:     common.KeyEsc,
	glfw.KeyLeft:       common.KeyLeft,
	glfw.KeyUp:         common.KeyUp,
	glfw.KeyRight:      common.KeyRight,
	glfw.KeyDown:       common.KeyDown,
	glfw.KeyKP0:        common.KeyNumpad0,
	glfw.KeyKP1:        common.KeyNumpad0 + 1,
	glfw.KeyKP2:        common.KeyNumpad0 + 2,
	glfw.KeyKP3:        common.KeyNumpad0 + 3,
	glfw.KeyKP4:        common.KeyNumpad4,
	glfw.KeyKP5:        common.KeyNumpad5,
	glfw.KeyKP6:        common.KeyNumpad6,
	glfw.KeyKP7:        common.KeyNumpad7,
	glfw.KeyKP8:        common.KeyNumpad8,
	glfw.KeyKP9:        common.KeyNumpad9,
	glfw.KeyLeftShift:  common.KeyLeftShift,
	glfw.KeyRightShift: common.KeyRightShift,
}

// virtualKey translates a GLFW key into the 256-entry virtual key space.
// Space, digits and letters share their ASCII value in both spaces.
func virtualKey(key glfw.Key) (uint32, bool) {
	switch {
	case key == glfw.KeySpace:
		return common.KeySpace, true
	case key >= glfw.Key0 && key <= glfw.Key9:
		return uint32(key), true
	case key >= glfw.KeyA && key <= glfw.KeyZ:
		return uint32(key), true
	}
	code, ok := glfwKeys[key]
	return code, ok
}
