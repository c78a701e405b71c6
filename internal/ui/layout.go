package ui

const (
	minCols = 40
	minRows = 12
	// bandRows is the rain band height once fully eased in.
	bandRows = 6
)

// DetermineLayoutMode picks the layout for a terminal size. Compact drops the
// rain band.
func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < minCols || rows < minRows {
		return LayoutTooSmall
	}
	if rows >= 24 && cols >= 60 {
		return LayoutFull
	}
	return LayoutCompact
}
