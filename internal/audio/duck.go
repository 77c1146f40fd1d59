package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

const maxVolume = 150

type DuckOptions struct {
	// Self lists application.name values that are never ducked.
	Self []string
	// Factor scales the other streams while ducked.
	Factor float64
	// Floor is the lowest volume, in percent, a ducked stream is set to.
	Floor int
	Fade  time.Duration
}

func DefaultDuckOptions() DuckOptions {
	return DuckOptions{
		Self:   []string{"brain-daemon", "eSpeak", "espeak-ng"},
		Factor: 0.3,
		Floor:  10,
		Fade:   150 * time.Millisecond,
	}
}

type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

type fade struct {
	id       int
	from, to int
}

// Ducker lowers other applications' PulseAudio streams while the microphone
// is open and puts them back afterwards. It drives pactl.
type Ducker struct {
	opt DuckOptions
	run func(ctx context.Context, args ...string) ([]byte, error)

	mu     sync.Mutex
	active bool
	saved  map[int]int
}

func NewDucker(opt DuckOptions) *Ducker {
	opt.Floor = clampVolume(opt.Floor)
	if opt.Factor <= 0 || opt.Factor > 1 {
		opt.Factor = DefaultDuckOptions().Factor
	}
	return &Ducker{opt: opt, run: pactl}
}

// Duck fades every foreign stream down. A second call before Restore is a no-op.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	d.saved = make(map[int]int)
	var fades []fade
	for _, in := range inputs {
		to := int(math.Round(float64(in.Volume) * d.opt.Factor))
		if to < d.opt.Floor {
			to = d.opt.Floor
		}
		d.saved[in.ID] = in.Volume
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: clampVolume(to)})
	}

	d.active = true
	return d.fade(ctx, fades)
}

// Restore fades ducked streams back. Streams opened after Duck are left alone.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}
	d.active = false

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, in := range inputs {
		if orig, ok := d.saved[in.ID]; ok {
			fades = append(fades, fade{id: in.ID, from: in.Volume, to: orig})
		}
	}
	d.saved = nil
	return d.fade(ctx, fades)
}

func (d *Ducker) list(ctx context.Context) ([]sinkInput, error) {
	out, err := d.run(ctx, "list", "sink-inputs")
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}

	var foreign []sinkInput
	for _, in := range parseSinkInputs(string(out)) {
		if !d.isSelf(in.AppName) {
			foreign = append(foreign, in)
		}
	}
	return foreign, nil
}

func (d *Ducker) isSelf(app string) bool {
	for _, name := range d.opt.Self {
		if app == name {
			return true
		}
	}
	return false
}

func (d *Ducker) fade(ctx context.Context, fades []fade) error {
	if len(fades) == 0 {
		return nil
	}

	const stepEvery = 10 * time.Millisecond
	steps := int(d.opt.Fade / stepEvery)
	if steps < 1 {
		steps = 1
	}

	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		frac := float64(i) / float64(steps)
		for _, f := range fades {
			v := int(math.Round(float64(f.from) + float64(f.to-f.from)*frac))
			if err := d.setVolume(ctx, f.id, v); err != nil {
				return err
			}
		}
		if i < steps {
			time.Sleep(d.opt.Fade / time.Duration(steps))
		}
	}
	return nil
}

func (d *Ducker) setVolume(ctx context.Context, id, percent int) error {
	_, err := d.run(ctx, "set-sink-input-volume", strconv.Itoa(id), fmt.Sprintf("%d%%", clampVolume(percent)))
	if err != nil {
		return fmt.Errorf("set volume id=%d: %w", id, err)
	}
	return nil
}

// parseSinkInputs reads `pactl list sink-inputs` output. Only the first
// channel volume is used.
func parseSinkInputs(out string) []sinkInput {
	blocks := strings.Split(out, "Sink Input #")
	var res []sinkInput

	for _, block := range blocks[1:] {
		header, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil {
			continue
		}

		in := sinkInput{ID: id, Volume: -1}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "Volume:") && in.Volume < 0:
				if m := percentRe.FindStringSubmatch(line); m != nil {
					in.Volume, _ = strconv.Atoi(m[1])
				}
			case strings.HasPrefix(line, "application.name =") && in.AppName == "":
				_, value, _ := strings.Cut(line, "=")
				in.AppName = strings.Trim(strings.TrimSpace(value), `"`)
			}
		}
		if in.Volume < 0 {
			continue
		}
		res = append(res, in)
	}
	return res
}

func pactl(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "pactl", args...).Output()
}

func clampVolume(v int) int {
	return max(0, min(v, maxVolume))
}
