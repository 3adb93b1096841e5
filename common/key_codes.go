package common

// KeyCount is the size of the key-state snapshot handed to the scene each frame.
const KeyCount = 256

// Virtual key codes indexing the 256-entry key-state snapshot.
// Printable keys use their ASCII values; the rest follow the Windows virtual-key layout so every code fits in a byte.
// The window translates platform key codes into this space.
const (
	KeyBackspace = 0x08
	KeyTab       = 0x09
	KeyEnter     = 0x0D
	KeyEsc       = 0x1B
	KeySpace     = 0x20 // Spacebar (ASCII)

	KeyLeft  = 0x25
	KeyUp    = 0x26
	KeyRight = 0x27
	KeyDown  = 0x28

	Key0 = 0x30 // 0 key (ASCII)
	Key9 = 0x39 // 9 key (ASCII)

	KeyA = 0x41 // A key (ASCII)
	KeyD = 0x44 // D key (ASCII)
	KeyL = 0x4C // L key (ASCII)
	KeyS = 0x53 // S key (ASCII)
	KeyW = 0x57 // W key (ASCII)
	KeyX = 0x58 // X key (ASCII)
	KeyZ = 0x5A // Z key (ASCII)

	KeyNumpad0 = 0x60
	KeyNumpad4 = 0x64
	KeyNumpad5 = 0x65
	KeyNumpad6 = 0x66
	KeyNumpad7 = 0x67
	KeyNumpad8 = 0x68
	KeyNumpad9 = 0x69

	KeyLeftShift  = 0xA0
	KeyRightShift = 0xA1
)
