package visuals

import "strings"

// Measurer reports the rendered size of a string. *gg.Context satisfies it.
type Measurer interface {
	MeasureString(s string) (w, h float64)
}

// WrapText greedily packs words into lines no wider than maxWidth. A word
// that is wider than maxWidth on its own gets a line to itself and is not split.
func WrapText(m Measurer, text string, maxWidth float64) []string {
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		if current == "" {
			current = word
			continue
		}
		candidate := current + " " + word
		if w, _ := m.MeasureString(candidate); w > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// fitText shortens s with an ellipsis until it fits maxWidth
func fitText(m Measurer, s string, maxWidth float64) string {
	if w, _ := m.MeasureString(s); w <= maxWidth {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		candidate := strings.TrimSpace(string(r)) + "…"
		if w, _ := m.MeasureString(candidate); w <= maxWidth {
			return candidate
		}
	}
	return ""
}
