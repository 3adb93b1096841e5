package camera

// CameraControllerOption is a functional option for configuring the fly controller.
type CameraControllerOption func(*flyController)

// WithMoveSpeed sets the translation speed in world units per second.
//
// Parameters:
//   - speed: units per second
//
// Returns:
//   - CameraControllerOption: functional option to set the move speed
func WithMoveSpeed(speed float32) CameraControllerOption {
	return func(fc *flyController) {
		fc.moveSpeed = speed
	}
}

// WithRotateSpeed sets the mouse-look speed in radians per pixel per second.
//
// Parameters:
//   - speed: radians per pixel per second
//
// Returns:
//   - CameraControllerOption: functional option to set the rotate speed
func WithRotateSpeed(speed float32) CameraControllerOption {
	return func(fc *flyController) {
		fc.rotateSpeed = speed
	}
}
