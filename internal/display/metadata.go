package display

import (
	"fmt"
	"strings"

	"naojutils/internal/fitsimg"
)

const noTimestamp = "<no timestamp found>"

// FormatMetaData lists the header cards one per line and returns the
// DATE-OBS value with the T separator replaced by a space.
func FormatMetaData(h *fitsimg.Header) ([]string, string) {
	var lines []string
	timestamp := noTimestamp
	for _, card := range h.Cards() {
		if card.Comment == "" {
			lines = append(lines, fmt.Sprintf("%8s: %8v", card.Name, card.Value))
		} else {
			lines = append(lines, fmt.Sprintf("%8s: %8v (%s)", card.Name, card.Value, card.Comment))
		}
		if card.Name == "DATE-OBS" {
			timestamp = strings.Replace(fmt.Sprintf("%v", card.Value), "T", " ", 1)
		}
	}
	return lines, timestamp
}
