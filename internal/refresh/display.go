package refresh

import "go.alexhamlin.co/coalesce/internal/channels"

// DisplayUpdate is delivered to a window when its display refreshes.
type DisplayUpdate struct {
	Window   string
	Frame    Frame
	Channels channels.Set
	// Requests is the number of refresh requests folded into this update.
	Requests int
}

// Display redraws an image window. Merging keeps the newest frame and
// accumulates the channels that changed since the window last redrew.
type Display struct {
	Window   string
	Frame    Frame
	Channels channels.Set
	Apply    func(DisplayUpdate)

	requests int
}

func (d Display) Class() Class {
	return Class{Kind: KindDisplay, Window: d.Window}
}

func (d Display) MergeWith(newer Task) Task {
	n := mustMerge(d, newer)
	return Display{
		Window:   d.Window,
		Frame:    n.Frame,
		Channels: d.Channels.Union(n.Channels),
		Apply:    n.Apply,
		requests: d.requestCount() + n.requestCount(),
	}
}

func (d Display) Run() {
	if d.Apply == nil {
		return
	}
	d.Apply(DisplayUpdate{
		Window:   d.Window,
		Frame:    d.Frame,
		Channels: d.Channels,
		Requests: d.requestCount(),
	})
}

func (d Display) requestCount() int {
	return max(1, d.requests)
}
