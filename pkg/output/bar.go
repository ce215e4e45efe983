package output

import "strings"

// eighth-width block characters from narrowest to full
var barBlocks = []rune{
	'\u258f', // ▏
	'\u258e', // ▎
	'\u258d', // ▍
	'\u258c', // ▌
	'\u258b', // ▋
	'\u258a', // ▊
	'\u2589', // ▉
	'\u2588', // █
}

// Bar draws value/max as a horizontal bar at most width cells wide.
func Bar(value, max float64, width int) string {
	if width < 1 || max <= 0 || value <= 0 {
		return ""
	}
	if value > max {
		value = max
	}

	eighths := int(value / max * float64(width*8))
	if eighths == 0 {
		eighths = 1
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(string(barBlocks[7]), eighths/8))
	if rem := eighths % 8; rem > 0 {
		b.WriteRune(barBlocks[rem-1])
	}
	return b.String()
}
