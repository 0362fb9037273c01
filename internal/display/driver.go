// Package display defines the driver contract the scheduler talks to.
//
// The physical split-flap (or any stand-in) is an external collaborator:
// ShowString is synchronous and atomic from the caller's point of view,
// and the scheduler is the only subsystem commanding flap motion.
package display

// Driver is the display contract consumed by the scheduler.
//
// Line 0 of the status area carries data freshness, line 1 connectivity.
type Driver interface {
	// ShowString commands the flaps. text must already be padded to the
	// module count. force redraws even if the text is unchanged.
	ShowString(text string, force bool)

	// DisableAll powers down all actuators (quiet hours).
	DisableAll()

	// ResetAll re-homes every module.
	ResetAll()

	// SetMessage updates a status line (0 or 1). No flap motion.
	SetMessage(line int, text string)
}

// Pad right-pads s with spaces to exactly n characters.
// Longer strings are truncated from the right.
func Pad(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) >= n {
		return string(r[:n])
	}
	b := make([]rune, n)
	copy(b, r)
	for i := len(r); i < n; i++ {
		b[i] = ' '
	}
	return string(b)
}
