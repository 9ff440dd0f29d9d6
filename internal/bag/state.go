// Package bag models the session shopping bag and aggregates it against the catalogue.
package bag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"storefront/internal/model"
)

// Sizes a sized product may be bought in.
var Sizes = []string{"XS", "S", "M", "L", "XL"}

// Entry is the bag content for one product: either a plain quantity or
// quantities keyed by size. The zero Entry is an empty simple entry.
type Entry struct {
	quantity int
	sizes    map[string]int
}

// Simple returns an entry for a product without size variants.
func Simple(quantity int) Entry {
	return Entry{quantity: quantity}
}

// Sized returns an entry holding per-size quantities.
func Sized(bySize map[string]int) Entry {
	return Entry{sizes: maps.Clone(bySize)}
}

// IsSized reports whether the entry tracks quantities per size.
func (e Entry) IsSized() bool {
	return e.sizes != nil
}

// Quantity returns the quantity of a simple entry, or the sum over sizes.
func (e Entry) Quantity() int {
	if !e.IsSized() {
		return e.quantity
	}
	total := 0
	for _, q := range e.sizes {
		total += q
	}
	return total
}

// SizeQuantity returns the quantity held for one size.
func (e Entry) SizeQuantity(size string) int {
	return e.sizes[size]
}

// SizeCodes returns the sizes present, in catalogue size order.
func (e Entry) SizeCodes() []string {
	codes := slices.Collect(maps.Keys(e.sizes))
	slices.SortFunc(codes, compareSizes)
	return codes
}

type sizedJSON struct {
	ItemsBySize map[string]int `json:"items_by_size"`
}

// MarshalJSON writes a bare integer for simple entries and
// {"items_by_size": {...}} for sized ones.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.IsSized() {
		return json.Marshal(sizedJSON{ItemsBySize: e.sizes})
	}
	return json.Marshal(e.quantity)
}

// UnmarshalJSON accepts both wire shapes of an entry.
func (e *Entry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var sized sizedJSON
		if err := json.Unmarshal(data, &sized); err != nil {
			return err
		}
		if sized.ItemsBySize == nil {
			return fmt.Errorf("sized bag entry without items_by_size")
		}
		*e = Entry{sizes: sized.ItemsBySize}
		return nil
	}

	var quantity int
	if err := json.Unmarshal(data, &quantity); err != nil {
		return fmt.Errorf("bag entry must be a quantity or a size map: %w", err)
	}
	*e = Entry{quantity: quantity}
	return nil
}

// State maps product identifiers to their bag entries.
// Mutations return a new State and leave the receiver untouched.
type State map[string]Entry

// Decode parses the session/snapshot representation of a bag.
func Decode(data []byte) (State, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return State{}, nil
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidBag, err)
	}
	if s == nil {
		s = State{}
	}
	return s, nil
}

// Encode serialises the bag. Keys are written in sorted order so equal bags
// always produce identical snapshots.
func (s State) Encode() (string, error) {
	if s == nil {
		s = State{}
	}
	data, err := json.Marshal(map[string]Entry(s))
	if err != nil {
		return "", fmt.Errorf("failed to encode bag: %w", err)
	}
	return string(data), nil
}

// IsEmpty reports whether the bag holds nothing.
func (s State) IsEmpty() bool {
	return len(s) == 0
}

// ProductIDs returns the bag keys in ascending numeric order.
func (s State) ProductIDs() []string {
	ids := slices.Collect(maps.Keys(s))
	slices.SortFunc(ids, compareIDs)
	return ids
}

// Add increments the quantity of a product, or of one size of it, and returns
// the new bag together with the resulting quantity.
func (s State) Add(productID, size string, quantity int) (State, int, error) {
	if quantity <= 0 {
		return nil, 0, model.ErrInvalidQuantity
	}

	next := s.clone()
	current, exists := next[productID]

	if size == "" {
		if exists && current.IsSized() {
			return nil, 0, model.ErrSizeRequired
		}
		next[productID] = Simple(current.quantity + quantity)
		return next, current.quantity + quantity, nil
	}

	if exists && !current.IsSized() {
		return nil, 0, model.ErrInvalidSize
	}
	sizes := maps.Clone(current.sizes)
	if sizes == nil {
		sizes = map[string]int{}
	}
	sizes[size] += quantity
	next[productID] = Entry{sizes: sizes}
	return next, sizes[size], nil
}

// Adjust overwrites the quantity of a product or size. A quantity of zero
// removes it.
func (s State) Adjust(productID, size string, quantity int) (State, error) {
	if quantity < 0 {
		return nil, model.ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.Remove(productID, size)
	}

	next := s.clone()
	current, exists := next[productID]

	if size == "" {
		if exists && current.IsSized() {
			return nil, model.ErrSizeRequired
		}
		next[productID] = Simple(quantity)
		return next, nil
	}

	if exists && !current.IsSized() {
		return nil, model.ErrInvalidSize
	}
	sizes := maps.Clone(current.sizes)
	if sizes == nil {
		sizes = map[string]int{}
	}
	sizes[size] = quantity
	next[productID] = Entry{sizes: sizes}
	return next, nil
}

// Remove deletes a product, or one size of it. The product entry is dropped
// once its last size is removed.
func (s State) Remove(productID, size string) (State, error) {
	current, exists := s[productID]
	if !exists {
		return nil, model.ErrNotInBag
	}

	next := s.clone()
	if size == "" || !current.IsSized() {
		delete(next, productID)
		return next, nil
	}

	if _, ok := current.sizes[size]; !ok {
		return nil, model.ErrNotInBag
	}
	sizes := maps.Clone(current.sizes)
	delete(sizes, size)
	if len(sizes) == 0 {
		delete(next, productID)
	} else {
		next[productID] = Entry{sizes: sizes}
	}
	return next, nil
}

// Validate rejects entries holding non-positive quantities.
func (s State) Validate() error {
	for id, e := range s {
		if e.IsSized() {
			if len(e.sizes) == 0 {
				return fmt.Errorf("%w: product %s has no sizes", model.ErrInvalidBag, id)
			}
			for size, q := range e.sizes {
				if q <= 0 {
					return fmt.Errorf("%w: product %s size %s has quantity %d", model.ErrInvalidBag, id, size, q)
				}
			}
			continue
		}
		if e.quantity <= 0 {
			return fmt.Errorf("%w: product %s has quantity %d", model.ErrInvalidBag, id, e.quantity)
		}
	}
	return nil
}

// IsValidSize reports whether size is one of the catalogue sizes.
func IsValidSize(size string) bool {
	return slices.Contains(Sizes, size)
}

func (s State) clone() State {
	next := make(State, len(s)+1)
	for k, v := range s {
		next[k] = v
	}
	return next
}

func compareIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		if ai < bi {
			return -1
		}
		if ai > bi {
			return 1
		}
		return 0
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func compareSizes(a, b string) int {
	ai, bi := slices.Index(Sizes, a), slices.Index(Sizes, b)
	if ai == -1 {
		ai = len(Sizes)
	}
	if bi == -1 {
		bi = len(Sizes)
	}
	if ai != bi {
		return ai - bi
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
