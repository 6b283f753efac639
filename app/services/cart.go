package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// LooseInt decodes a JSON number or numeric string leniently: the leading
// integer prefix is used ("12abc" is 12, "3.9" is 3). Values outside the
// int32 range saturate at its bounds. Anything else leaves Valid false.
type LooseInt struct {
	Value int
	Valid bool
}

func (n *LooseInt) UnmarshalJSON(b []byte) error {
	*n = LooseInt{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	} else {
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) || math.IsNaN(f) {
			return nil
		}
		*n = LooseInt{Value: clampInt32(math.Trunc(f)), Valid: true}
		return nil
	}

	if v, ok := parseLeadingInt(s); ok {
		*n = LooseInt{Value: v, Valid: true}
	}
	return nil
}

func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return clampInt32(float64(v)), true
}

func clampInt32(f float64) int {
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// CartItem is one requested product and quantity as the client sent it.
type CartItem struct {
	ProductID LooseInt `json:"productoId"`
	Quantity  LooseInt `json:"cantidad"`
}

// Item builds a CartItem from plain integers.
func Item(productID, quantity int) CartItem {
	return CartItem{
		ProductID: LooseInt{Value: productID, Valid: true},
		Quantity:  LooseInt{Value: quantity, Valid: true},
	}
}

// cartLine is a normalised cart entry.
type cartLine struct {
	ProductID uint
	Quantity  int
}

// normalizeCart drops entries without a positive product id and clamps
// quantities to at least one. Duplicate ids stay separate lines.
func normalizeCart(items []CartItem) []cartLine {
	out := make([]cartLine, 0, len(items))
	for _, it := range items {
		if !it.ProductID.Valid || it.ProductID.Value <= 0 {
			continue
		}
		qty := 1
		if it.Quantity.Valid && it.Quantity.Value > 1 {
			qty = it.Quantity.Value
		}
		out = append(out, cartLine{ProductID: uint(it.ProductID.Value), Quantity: qty})
	}
	return out
}

// distinctIDs returns the product ids of lines in first-seen order.
func distinctIDs(lines []cartLine) []uint {
	seen := make(map[uint]struct{}, len(lines))
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
