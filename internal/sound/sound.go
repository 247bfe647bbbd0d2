// Package sound plays short synthesized cues for verdicts. Playback is
// best-effort: a missing audio device turns every cue into a no-op.
package sound

import (
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/verte-zerg/strafe/internal/scoring"
)

const (
	sampleRate = beep.SampleRate(44100)
	bufferSize = 50 * time.Millisecond
	toneGap    = 20 * time.Millisecond
	// cueGain scales the full-range sine down to a quarter.
	cueGain = -0.75
)

type tone struct {
	freq float64
	dur  time.Duration
}

var cueTones = map[scoring.Cue][]tone{
	scoring.CueEarly:   {{freq: 660, dur: 70 * time.Millisecond}},
	scoring.CuePerfect: {{freq: 880, dur: 60 * time.Millisecond}, {freq: 1320, dur: 90 * time.Millisecond}},
	scoring.CueOkay:    {{freq: 523, dur: 110 * time.Millisecond}},
	scoring.CuePoor:    {{freq: 196, dur: 220 * time.Millisecond}},
	scoring.CueHold:    {{freq: 392, dur: 90 * time.Millisecond}, {freq: 262, dur: 140 * time.Millisecond}},
}

// Player plays a cue.
type Player interface {
	Play(cue scoring.Cue)
}

// Nop is a Player that stays silent.
type Nop struct{}

// Play implements Player.
func (Nop) Play(scoring.Cue) {}

type output interface {
	Clear()
	Play(s beep.Streamer)
}

type speakerOutput struct{}

func (speakerOutput) Clear()               { speaker.Clear() }
func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }

// Synth plays one tone sequence per cue. A new cue cuts off the one still
// playing.
type Synth struct {
	mu  sync.Mutex
	out output
}

// Play implements Player.
func (p *Synth) Play(cue scoring.Cue) {
	s, err := cueStreamer(cue)
	if err != nil {
		log.Printf("cue %s: %v", cue, err)
		return
	}
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out.Clear()
	p.out.Play(s)
}

func cueStreamer(cue scoring.Cue) (beep.Streamer, error) {
	tones, ok := cueTones[cue]
	if !ok {
		return nil, nil
	}
	parts := make([]beep.Streamer, 0, 2*len(tones))
	for i, t := range tones {
		if i > 0 {
			parts = append(parts, beep.Silence(sampleRate.N(toneGap)))
		}
		sine, err := generators.SineTone(sampleRate, t.freq)
		if err != nil {
			return nil, err
		}
		parts = append(parts, beep.Take(sampleRate.N(t.dur), sine))
	}
	return &effects.Gain{Streamer: beep.Seq(parts...), Gain: cueGain}, nil
}

var (
	speakerOnce sync.Once
	speakerErr  error
)

// New returns a Synth on the default audio device when enabled. When sound is
// disabled or the device cannot be opened it returns Nop.
func New(enabled bool) Player {
	if !enabled {
		return Nop{}
	}
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(sampleRate, sampleRate.N(bufferSize))
	})
	if speakerErr != nil {
		log.Printf("audio disabled: %v", speakerErr)
		return Nop{}
	}
	return &Synth{out: speakerOutput{}}
}
