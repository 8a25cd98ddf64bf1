package refresh

import (
	"fmt"
	"maps"

	"github.com/mitchellh/copystructure"

	"go.alexhamlin.co/coalesce/internal/channels"
)

// HistogramUpdate is delivered when a window's histogram panel refreshes.
type HistogramUpdate struct {
	Window   string
	Channels channels.Set
	Stats    map[string]ChannelStats
}

// Histogram refreshes the statistics shown for a set of channels in a window.
// The channel set is part of the class, so histograms for different channel
// selections refresh independently. Merging keeps the latest statistics for
// every channel reported by either task.
type Histogram struct {
	Window   string
	Channels channels.Set
	Stats    map[string]ChannelStats
	Apply    func(HistogramUpdate)
}

func (h Histogram) Class() Class {
	return Class{Kind: KindHistogram, Window: h.Window, Channels: h.Channels}
}

func (h Histogram) MergeWith(newer Task) Task {
	n := mustMerge(h, newer)

	// The older task may still be referenced by its producer, so its map must
	// not be modified.
	copied, err := copystructure.Copy(h.Stats)
	if err != nil {
		panic(fmt.Errorf("refresh: copying histogram stats: %w", err))
	}
	stats, _ := copied.(map[string]ChannelStats)
	if stats == nil {
		stats = make(map[string]ChannelStats, len(n.Stats))
	}
	maps.Copy(stats, n.Stats)

	return Histogram{
		Window:   h.Window,
		Channels: h.Channels,
		Stats:    stats,
		Apply:    n.Apply,
	}
}

func (h Histogram) Run() {
	if h.Apply == nil {
		return
	}
	h.Apply(HistogramUpdate{
		Window:   h.Window,
		Channels: h.Channels,
		Stats:    h.Stats,
	})
}
