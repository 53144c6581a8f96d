package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	oto "github.com/hajimehoshi/oto/v2"
)

// clip is a run of mono samples pinned to an absolute frame position.
type clip struct {
	startFrame int64
	samples    []float64
}

// clipQueue mixes scheduled clips into an int16 PCM stream. The frame cursor
// advances as the consumer reads, which makes it the playback clock.
type clipQueue struct {
	mu         sync.Mutex
	sampleRate int
	cursor     int64
	clips      []clip
	volume     float64
}

func newClipQueue(sampleRate int) *clipQueue {
	return &clipQueue{
		sampleRate: sampleRate,
		volume:     1.0,
	}
}

// Read implements io.Reader, producing signed 16-bit little-endian mono PCM.
// Regions with no scheduled clip come out as silence, so the stream never
// starves the consumer.
func (q *clipQueue) Read(p []byte) (int, error) {
	numFrames := len(p) / 2
	if numFrames == 0 {
		return 0, nil
	}

	q.mu.Lock()
	start := q.cursor
	end := start + int64(numFrames)
	vol := q.volume

	mixed := make([]float64, numFrames)
	kept := q.clips[:0]
	for _, c := range q.clips {
		clipEnd := c.startFrame + int64(len(c.samples))
		if clipEnd <= start {
			continue
		}
		if c.startFrame < end {
			from := start - c.startFrame
			if from < 0 {
				from = 0
			}
			to := end - c.startFrame
			if to > int64(len(c.samples)) {
				to = int64(len(c.samples))
			}
			base := c.startFrame + from - start
			for i, s := range c.samples[from:to] {
				mixed[base+int64(i)] += s
			}
		}
		if clipEnd > end {
			kept = append(kept, c)
		}
	}
	q.clips = kept
	q.cursor = end
	q.mu.Unlock()

	for i, s := range mixed {
		s *= vol
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		p[i*2] = byte(v)
		p[i*2+1] = byte(v >> 8)
	}
	return numFrames * 2, nil
}

// Now returns the stream position of the frame cursor.
func (q *clipQueue) Now() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return framesToDuration(q.cursor, q.sampleRate)
}

// ScheduleAt queues samples to begin playing at the given stream time. Any
// portion already behind the cursor is dropped.
func (q *clipQueue) ScheduleAt(at time.Duration, samples []float64) {
	if len(samples) == 0 {
		return
	}
	startFrame := durationToFrames(at, q.sampleRate)

	q.mu.Lock()
	defer q.mu.Unlock()
	if startFrame < q.cursor {
		skip := q.cursor - startFrame
		if skip >= int64(len(samples)) {
			return
		}
		samples = samples[skip:]
		startFrame = q.cursor
	}
	q.clips = append(q.clips, clip{startFrame: startFrame, samples: samples})
}

// SetVolume sets the output gain, clamped to [0, 1].
func (q *clipQueue) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	q.mu.Lock()
	q.volume = v
	q.mu.Unlock()
}

func (q *clipQueue) Volume() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.volume
}

// OtoOutput drives a hardware audio device through oto. The device pulls from
// the clip queue continuously, so the queue's cursor tracks real playback time
// and scheduled clips land sample-accurately.
type OtoOutput struct {
	*clipQueue
	player oto.Player
}

// NewOtoOutput opens the audio device at the given sample rate and starts the
// pull loop immediately. The clock runs from this point on.
func NewOtoOutput(sampleRate int) (*OtoOutput, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	ctx, ready, err := oto.NewContext(sampleRate, 1, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}
	<-ready

	queue := newClipQueue(sampleRate)
	player := ctx.NewPlayer(io.Reader(queue))
	player.Play()

	return &OtoOutput{
		clipQueue: queue,
		player:    player,
	}, nil
}

// SampleRate returns the device sample rate.
func (o *OtoOutput) SampleRate() int {
	return o.sampleRate
}

// Close stops the device pull loop. The stream clock freezes at its current
// position.
func (o *OtoOutput) Close() error {
	if o.player != nil {
		if o.player.IsPlaying() {
			o.player.Pause()
		}
		return o.player.Close()
	}
	return nil
}
