package fitsimg

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/astrogo/fitsio"
	"github.com/qdm12/reprint"
)

var (
	ErrMissingKeyword = errors.New("missing header keyword")
	ErrKeywordType    = errors.New("header keyword has wrong type")
)

// These cards describe the data layout and are regenerated from the image
// shape when a file is written.
var structural = map[string]bool{
	"SIMPLE":   true,
	"XTENSION": true,
	"BITPIX":   true,
	"NAXIS":    true,
	"EXTEND":   true,
	"PCOUNT":   true,
	"GCOUNT":   true,
	"END":      true,
}

func isStructural(name string) bool {
	if structural[name] {
		return true
	}
	return strings.HasPrefix(name, "NAXIS")
}

func isCommentary(name string) bool {
	return name == "COMMENT" || name == "HISTORY" || name == ""
}

// Header is the ordered, non-structural part of a FITS header.
type Header struct {
	cards []fitsio.Card
}

func NewHeader(cards ...fitsio.Card) *Header {
	h := &Header{}
	for _, card := range cards {
		if isStructural(card.Name) {
			continue
		}
		h.Set(card.Name, card.Value, card.Comment)
	}
	return h
}

// Cards returns a copy of the cards in header order.
func (h *Header) Cards() []fitsio.Card {
	out := make([]fitsio.Card, len(h.cards))
	copy(out, h.cards)
	return out
}

func (h *Header) Keys() []string {
	keys := make([]string, 0, len(h.cards))
	for _, card := range h.cards {
		keys = append(keys, card.Name)
	}
	return keys
}

func (h *Header) Len() int { return len(h.cards) }

func (h *Header) index(name string) int {
	for i := range h.cards {
		if h.cards[i].Name == name {
			return i
		}
	}
	return -1
}

func (h *Header) Has(name string) bool { return h.index(name) >= 0 }

func (h *Header) Get(name string) (fitsio.Card, bool) {
	i := h.index(name)
	if i < 0 {
		return fitsio.Card{}, false
	}
	return h.cards[i], true
}

// Set replaces the value of an existing card, keeping its position, or
// appends a new one. An empty comment keeps the existing comment.
// COMMENT and HISTORY cards are always appended.
func (h *Header) Set(name string, value interface{}, comment string) {
	if isStructural(name) {
		return
	}
	i := h.index(name)
	if i < 0 || isCommentary(name) {
		h.cards = append(h.cards, fitsio.Card{Name: name, Value: value, Comment: comment})
		return
	}
	h.cards[i].Value = value
	if comment != "" {
		h.cards[i].Comment = comment
	}
}

// Remove deletes the named cards. Names that are not present are ignored.
func (h *Header) Remove(names ...string) {
	if len(names) == 0 {
		return
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := h.cards[:0]
	for _, card := range h.cards {
		if !drop[card.Name] {
			kept = append(kept, card)
		}
	}
	h.cards = kept
}

// Clone returns a deep copy.
func (h *Header) Clone() *Header {
	if h == nil {
		return NewHeader()
	}
	return &Header{cards: reprint.This(h.Cards()).([]fitsio.Card)}
}

// CopyFrom copies the listed keywords that exist in src, in the given order.
// It returns the names that were not found.
func (h *Header) CopyFrom(src *Header, names ...string) []string {
	var missing []string
	for _, n := range names {
		card, ok := src.Get(n)
		if !ok {
			missing = append(missing, n)
			continue
		}
		h.Set(card.Name, card.Value, card.Comment)
	}
	return missing
}

func (h *Header) Int(name string) (int, error) {
	card, ok := h.Get(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingKeyword, name)
	}
	switch v := card.Value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	case float32:
		if float64(v) == math.Trunc(float64(v)) {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("%w: %s=%v is not an integer", ErrKeywordType, name, card.Value)
}

func (h *Header) Float(name string) (float64, error) {
	card, ok := h.Get(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingKeyword, name)
	}
	switch v := card.Value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%w: %s=%v is not a number", ErrKeywordType, name, card.Value)
}

func (h *Header) String(name string) (string, error) {
	card, ok := h.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingKeyword, name)
	}
	s, ok := card.Value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s=%v is not a string", ErrKeywordType, name, card.Value)
	}
	return strings.TrimSpace(s), nil
}

func (h *Header) Bool(name string) (bool, error) {
	card, ok := h.Get(name)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMissingKeyword, name)
	}
	b, ok := card.Value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s=%v is not logical", ErrKeywordType, name, card.Value)
	}
	return b, nil
}
