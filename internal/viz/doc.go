// Package viz renders appendage shapes in the terminal.
//
// A Braille pixel canvas gives sub-character resolution for the backbone
// curve; [Shape] renders a single configuration, and [Interactive] is a
// Bubble Tea application for adjusting the curvature states live.
//
// # Key Bindings (interactive mode)
//
//	j/k   - select state
//	h/l   - adjust selected state
//	H/L   - coarse adjust
//	g/G   - tilt gravity direction
//	r     - reset to the straight configuration
//	q     - quit
package viz
