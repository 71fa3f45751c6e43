package ui

// Terminal width below which panes stack vertically.
const LayoutStackedWidth = 100

// Log view limits.
const (
	// LogTailLines is how many client log lines the log view reads.
	LogTailLines = 400
)

// Chrome heights: header and footer lines, plus two border lines per pane.
const (
	headerHeight = 1
	footerHeight = 1
	paneChrome   = 2
)
