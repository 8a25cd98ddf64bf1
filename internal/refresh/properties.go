package refresh

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Properties refreshes the property widgets of one device. Merging
// accumulates the names of every property that changed.
type Properties struct {
	Device  string
	Changed mapset.Set[string]
	Apply   func(device string, changed []string)
}

// PropertiesChanged returns a task reporting that the named properties of
// device changed.
func PropertiesChanged(device string, apply func(string, []string), names ...string) Properties {
	return Properties{
		Device:  device,
		Changed: mapset.NewSet(names...),
		Apply:   apply,
	}
}

func (p Properties) Class() Class {
	return Class{Kind: KindProperties, Device: p.Device}
}

func (p Properties) MergeWith(newer Task) Task {
	n := mustMerge(p, newer)

	var changed mapset.Set[string]
	switch {
	case p.Changed == nil && n.Changed == nil:
	case p.Changed == nil:
		changed = n.Changed.Clone()
	case n.Changed == nil:
		changed = p.Changed.Clone()
	default:
		changed = p.Changed.Union(n.Changed)
	}

	return Properties{
		Device:  p.Device,
		Changed: changed,
		Apply:   n.Apply,
	}
}

func (p Properties) Run() {
	if p.Apply == nil {
		return
	}
	var names []string
	if p.Changed != nil {
		names = p.Changed.ToSlice()
		slices.Sort(names)
	}
	p.Apply(p.Device, names)
}
