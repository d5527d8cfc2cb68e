package common

// Key is a keyboard key code. Printable keys use their upper-case ASCII value and the rest use
// GLFW's numbering, so window key callbacks pass codes through unchanged.
type Key uint32

const (
	KeySpace Key = 32

	Key0 Key = 48
	Key1 Key = 49
	Key2 Key = 50
	Key3 Key = 51
	Key4 Key = 52
	Key5 Key = 53
	Key6 Key = 54
	Key7 Key = 55
	Key8 Key = 56
	Key9 Key = 57

	KeyA Key = 65
	KeyC Key = 67
	KeyD Key = 68
	KeyP Key = 80
	KeyS Key = 83
	KeyW Key = 87

	KeyEscape    Key = 256
	KeyLeftShift Key = 340
)

// Digit returns the value of a top-row digit key.
//
// Returns:
//   - int: 0 through 9
//   - bool: false when k is not a digit key
func (k Key) Digit() (int, bool) {
	if k < Key0 || k > Key9 {
		return 0, false
	}
	return int(k - Key0), true
}
