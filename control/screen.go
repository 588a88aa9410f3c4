package control

import "shnth-control/hardware"

const (
	// ScreenLineCount is the number of rows the status line scrolls through.
	ScreenLineCount = 8
	// StatusText is drawn on every refresh.
	StatusText = "SHNTH CONTROL"
	// StatusCol is the column StatusText starts at.
	StatusCol = 8
)

// Screen renders the status display. Each render moves the status line down
// one row, wrapping at ScreenLineCount.
type Screen struct {
	cursor int
}

// Cursor returns the row the status line was last drawn on.
func (s *Screen) Cursor() int {
	return s.cursor
}

// Render advances the cursor, then redraws and commits one frame.
func (s *Screen) Render(hw hardware.Screen) {
	s.cursor++
	if s.cursor >= ScreenLineCount {
		s.cursor = 0
	}

	hw.ClearScreen()
	hw.DrawStr(StatusText, s.cursor, StatusCol, 0)
	hw.RefreshScreen()
}
