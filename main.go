// Command coalesce simulates an acquisition session refreshing several image
// windows, to show how coalescing keeps a slow user interface thread current
// without running every refresh that producers request.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"go.alexhamlin.co/coalesce/internal/channels"
	"go.alexhamlin.co/coalesce/internal/coalesce"
	"go.alexhamlin.co/coalesce/internal/log"
	"go.alexhamlin.co/coalesce/internal/loop"
	"go.alexhamlin.co/coalesce/internal/pixel"
	"go.alexhamlin.co/coalesce/internal/refresh"
)

var channelNames = []string{"DAPI", "FITC", "Cy5"}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	Windows       int
	Producers     int
	Frames        int
	PixelType     pixel.Type
	Width         int
	Height        int
	Deferred      bool
	ConsumerDelay time.Duration
	JSON          bool
	Verbose       bool
}

func parseConfig(args []string) (config, error) {
	var (
		cfg       config
		pixelType string
	)
	fs := pflag.NewFlagSet("coalesce", pflag.ContinueOnError)
	fs.IntVar(&cfg.Windows, "windows", 2, "number of image windows to refresh")
	fs.IntVar(&cfg.Producers, "producers", 4, "number of concurrent acquisition producers")
	fs.IntVar(&cfg.Frames, "frames", 100, "frames acquired by each producer")
	fs.StringVar(&pixelType, "pixel-type", pixel.Gray16.String(), "pixel type of acquired frames (GRAY8, GRAY16, RGB32)")
	fs.IntVar(&cfg.Width, "width", 64, "frame width in pixels")
	fs.IntVar(&cfg.Height, "height", 64, "frame height in pixels")
	fs.BoolVar(&cfg.Deferred, "deferred", false, "refresh only after producers stop outpacing the display")
	fs.DurationVar(&cfg.ConsumerDelay, "consumer-delay", time.Millisecond, "simulated time for each display refresh")
	fs.BoolVar(&cfg.JSON, "json", false, "print the report as JSON")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every skipped and idle wake-up")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() > 0 {
		return config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	var err error
	if cfg.PixelType, err = pixel.Parse(pixelType); err != nil {
		return config{}, err
	}
	for name, v := range map[string]int{
		"windows":   cfg.Windows,
		"producers": cfg.Producers,
		"frames":    cfg.Frames,
		"width":     cfg.Width,
		"height":    cfg.Height,
	} {
		if v <= 0 {
			return config{}, fmt.Errorf("--%s must be positive, got %d", name, v)
		}
	}
	if cfg.ConsumerDelay < 0 {
		return config{}, fmt.Errorf("--consumer-delay must not be negative, got %v", cfg.ConsumerDelay)
	}
	return cfg, nil
}

func run(args []string, stdout io.Writer) error {
	cfg, err := parseConfig(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if cfg.Verbose {
		log.EnableVerbose()
	}

	rep, err := simulate(cfg)
	if err != nil {
		return err
	}
	if cfg.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	rep.WriteText(stdout)
	return nil
}

// report is only modified by refresh callbacks on the event loop.
type report struct {
	Stats      coalesce.Stats           `json:"stats"`
	Requested  int                      `json:"requested"`
	Renders    map[string]int           `json:"renders"`
	LastFrames map[string]refresh.Frame `json:"lastFrames"`
	Dirty      map[string]channels.Set  `json:"dirtyChannels"`
	Histograms map[string]int           `json:"histograms"`
	Properties map[string][]string      `json:"properties"`
}

func simulate(cfg config) (*report, error) {
	rep := &report{
		Requested:  cfg.Producers * cfg.Frames,
		Renders:    make(map[string]int),
		LastFrames: make(map[string]refresh.Frame),
		Dirty:      make(map[string]channels.Set),
		Histograms: make(map[string]int),
		Properties: make(map[string][]string),
	}

	l := loop.New()
	s := refresh.NewScheduler(l)
	schedule := s.Schedule
	if cfg.Deferred {
		schedule = s.ScheduleDeferred
	}

	showFrame := func(u refresh.DisplayUpdate) {
		time.Sleep(cfg.ConsumerDelay)
		rep.Renders[u.Window]++
		rep.LastFrames[u.Window] = u.Frame
		rep.Dirty[u.Window] = rep.Dirty[u.Window].Union(u.Channels)
		log.Verbosef("[display] %s: frame %d (%s, %d requests)", u.Window, u.Frame.Index, u.Frame.Digest.Encoded()[:12], u.Requests)
	}
	showHistogram := func(u refresh.HistogramUpdate) {
		rep.Histograms[u.Window]++
	}
	showProperties := func(device string, changed []string) {
		rep.Properties[device] = changed
	}

	allChannels := channels.SetOf(channelNames...)
	var group errgroup.Group
	for p := range cfg.Producers {
		group.Go(func() error {
			pix := make([]byte, cfg.PixelType.FrameSize(cfg.Width, cfg.Height))
			for i := range cfg.Frames {
				index := p*cfg.Frames + i
				window := fmt.Sprintf("window-%d", index%cfg.Windows)
				channel := channelNames[index%len(channelNames)]

				for j := range pix {
					pix[j] = byte(rand.Uint32())
				}
				frame, err := refresh.NewFrame(index, cfg.PixelType, cfg.Width, cfg.Height, pix)
				if err != nil {
					return err
				}
				stats, err := refresh.ComputeStats(cfg.PixelType, pix, 0)
				if err != nil {
					return err
				}

				schedule(refresh.Display{
					Window:   window,
					Frame:    frame,
					Channels: channels.SetOf(channel),
					Apply:    showFrame,
				})
				schedule(refresh.Histogram{
					Window:   window,
					Channels: allChannels,
					Stats:    map[string]refresh.ChannelStats{channel: stats},
					Apply:    showHistogram,
				})
				if i%10 == 0 {
					schedule(refresh.PropertiesChanged("Camera", showProperties, fmt.Sprintf("Producer%dFrame", p)))
				}
			}
			return nil
		})
	}
	err := group.Wait()

	l.Close()
	l.Wait()
	rep.Stats = s.Stats()
	return rep, err
}

func (r *report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "requested %d display refreshes\n", r.Requested)
	fmt.Fprintf(w, "scheduled=%d merged=%d posted=%d ran=%d skipped=%d idle=%d\n",
		r.Stats.Scheduled, r.Stats.Merged, r.Stats.Posted, r.Stats.Ran, r.Stats.Skipped, r.Stats.Idle)

	windows := lo.Keys(r.Renders)
	slices.Sort(windows)
	for _, window := range windows {
		last := r.LastFrames[window]
		fmt.Fprintf(w, "%s: %d renders, %d histogram refreshes, last frame %d (%s), channels %s\n",
			window, r.Renders[window], r.Histograms[window], last.Index, last.Digest, r.Dirty[window])
	}
	fmt.Fprintf(w, "total renders: %d\n", lo.Sum(lo.Values(r.Renders)))
}
