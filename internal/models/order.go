package models

import (
	"fmt"
	"slices"
	"strings"
)

// Order selects how note collections are sorted.
type Order string

const (
	// OrderID sorts by id ascending. It is the default listing order.
	OrderID Order = "id"
	// OrderUpdated sorts by last update, most recent first.
	OrderUpdated Order = "updated"
)

// ParseOrder converts a configuration value into an Order. Empty means OrderID.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderID:
		return OrderID, nil
	case OrderUpdated:
		return OrderUpdated, nil
	}
	return "", fmt.Errorf("unknown order %q (want %q or %q)", s, OrderID, OrderUpdated)
}

// Compare defines a total order over notes. It returns a negative number when
// a sorts before b, zero when they are equal and a positive number otherwise.
//
// Ties under OrderUpdated are broken by id ascending. A nil note, or one
// without an id, sorts before any note that has one.
func Compare(a, b *Note, order Order) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.ID == "" && b.ID != "":
		return -1
	case a.ID != "" && b.ID == "":
		return 1
	}
	if order == OrderUpdated {
		if c := b.LastUpdated.Compare(a.LastUpdated); c != 0 {
			return c
		}
	}
	if c := CompareIDs(a.ID, b.ID); c != 0 {
		return c
	}
	return strings.Compare(a.Title, b.Title)
}

// Sort orders notes in place.
func Sort(notes []*Note, order Order) {
	slices.SortStableFunc(notes, func(a, b *Note) int { return Compare(a, b, order) })
}

// CompareIDs compares two ids numerically when both are decimal numbers
// (sequential and timestamp ids), and lexically otherwise. Numeric ids sort
// before non-numeric ones.
func CompareIDs(a, b string) int {
	an, bn := isDigits(a), isDigits(b)
	switch {
	case an && bn:
		ta, tb := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if len(ta) != len(tb) {
			if len(ta) < len(tb) {
				return -1
			}
			return 1
		}
		if c := strings.Compare(ta, tb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case an:
		return -1
	case bn:
		return 1
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
