// Package channels provides a comparable set of acquisition channel names.
package channels

import (
	"encoding/ascii85"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"golang.org/x/exp/slices"
)

const (
	shiftOut      = "\x0e"
	unitSeparator = "\x1f"
)

type assertComparable[T comparable] struct{}

var _ assertComparable[Set]

// Set is a set of channel names that is comparable with == and !=, so it may be
// used within map keys. The zero value is a valid and empty set.
type Set struct {
	// The internal representation of a Set is formed by sorting its raw names,
	// encoding each one, and joining them with the byte 0x1F (the ASCII Unit
	// Separator character).
	//
	// A name whose encoded form begins with the byte 0x0E (the ASCII Shift Out
	// character) is stored as an Ascii85 encoding of the raw name following that
	// byte. Any other encoded name is the raw name itself.
	joined string
}

// SetOf returns a set of the provided names.
func SetOf(names ...string) (s Set) {
	s.Add(names...)
	return
}

// Add adds the provided names to s if it does not already contain them.
func (s *Set) Add(names ...string) {
	if len(names) == 0 {
		return
	}
	all := append(s.ToSlice(), names...)
	slices.Sort(all)
	all = slices.Compact(all)
	encodeAll(all)
	s.joined = strings.Join(all, unitSeparator)
}

// Union returns a new set containing the names of both s and other.
func (s Set) Union(other Set) Set {
	switch {
	case s.joined == "" || s == other:
		return other
	case other.joined == "":
		return s
	}
	u := s
	u.Add(other.ToSlice()...)
	return u
}

// Contains reports whether s contains name.
func (s Set) Contains(name string) bool {
	for elem := range s.All() {
		if elem == name {
			return true
		}
	}
	return false
}

// Len returns the number of names in s.
func (s Set) Len() int {
	if len(s.joined) == 0 {
		return 0
	}
	return strings.Count(s.joined, unitSeparator) + 1
}

// All returns an iterator over the names in s, in sorted order.
func (s Set) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		if len(s.joined) == 0 {
			return
		}
		for elem := range strings.SplitSeq(s.joined, unitSeparator) {
			if !yield(decode(elem)) {
				return
			}
		}
	}
}

// ToSlice returns a sorted slice of the names in s.
func (s Set) ToSlice() []string {
	if len(s.joined) == 0 {
		return nil
	}
	all := strings.Split(s.joined, unitSeparator)
	for i, elem := range all {
		all[i] = decode(elem)
	}
	return all
}

func (s Set) String() string {
	return "{" + strings.Join(s.ToSlice(), ",") + "}"
}

func (s Set) MarshalJSON() ([]byte, error) {
	names := s.ToSlice()
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

func (s *Set) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	slices.Sort(names)
	if len(slices.Compact(slices.Clone(names))) < len(names) {
		return errors.New("cannot unmarshal duplicate channel names in a set")
	}
	*s = SetOf(names...)
	return nil
}

func encodeAll(names []string) {
	for i, name := range names {
		// We only Ascii85-encode when the raw name would be ambiguous: when it
		// contains a Unit Separator, starts with a Shift Out, or is empty (which
		// would be indistinguishable from the empty set if it were alone).
		if name == "" || strings.Contains(name, unitSeparator) || strings.HasPrefix(name, shiftOut) {
			names[i] = encodeAscii85(name)
		}
	}
}

func encodeAscii85(name string) string {
	out := make([]byte, 1+ascii85.MaxEncodedLen(len(name)))
	out[0] = shiftOut[0]
	outlen := ascii85.Encode(out[1:], []byte(name))
	return string(out[:1+outlen])
}

func decode(elem string) string {
	if !strings.HasPrefix(elem, shiftOut) {
		return elem
	}
	var builder strings.Builder
	encoded := elem[1:] // Strip off the Shift Out byte used to mark the Ascii85 encoding.
	_, err := io.Copy(&builder, ascii85.NewDecoder(strings.NewReader(encoded)))
	if err != nil {
		panic(fmt.Errorf("invalid channels.Set encoding: %q: %v", elem, err))
	}
	return builder.String()
}
