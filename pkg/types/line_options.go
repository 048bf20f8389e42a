package types

import (
	"encoding/json"
	"sort"
	"strings"
)

// LineOptions carries the chosen customizations for a cart line (size, spice
// level, toppings, free-text note). Two lines with the same item but different
// options are distinct lines; the canonical key below is what defines that
// identity.
type LineOptions map[string]any

// CanonicalKey returns a deterministic encoding of the options. encoding/json
// already emits map keys in sorted order, which makes the marshaled form stable
// regardless of how the map was built.
func (o LineOptions) CanonicalKey() string {
	if len(o) == 0 {
		return "{}"
	}
	encoded, err := json.Marshal(o)
	if err != nil {
		// Options come from JSON payloads; a non-serializable value only
		// happens through programmer error. Fall back to sorted keys so the
		// identity stays deterministic instead of panicking.
		keys := make([]string, 0, len(o))
		for k := range o {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "{" + strings.Join(keys, ",") + "}"
	}
	return string(encoded)
}

// Equal reports whether two option sets denote the same line identity.
func (o LineOptions) Equal(other LineOptions) bool {
	return o.CanonicalKey() == other.CanonicalKey()
}

// Clone returns a shallow copy so callers can hand out snapshots without
// sharing the underlying map.
func (o LineOptions) Clone() LineOptions {
	if o == nil {
		return nil
	}
	dup := make(LineOptions, len(o))
	for k, v := range o {
		dup[k] = v
	}
	return dup
}
