package game

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// formatDuration formats a duration as MM:SS
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// formatFrameTime renders a frame time in milliseconds with the rate it
// implies.
func formatFrameTime(d time.Duration) string {
	if d <= 0 {
		return "-- ms"
	}
	ms := float64(d) / float64(time.Millisecond)
	return fmt.Sprintf("%.2f ms (%.0f fps)", ms, 1000/ms)
}

// ensurePNG appends a .png extension when the chosen path has none.
func ensurePNG(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return path
	}
	return path + ".png"
}
