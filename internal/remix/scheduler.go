package remix

import (
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/remixd/remixd/internal/analysis"
)

const (
	// defaultTickInterval is how often the scheduler wakes to top up the
	// output queue.
	defaultTickInterval = 25 * time.Millisecond
	// defaultLookahead is how far ahead of the output clock beats are kept
	// scheduled. Must comfortably exceed the tick interval or the stream
	// underruns.
	defaultLookahead = 100 * time.Millisecond
	// defaultFade is the linear declick ramp applied to both ends of every
	// scheduled beat clip.
	defaultFade = 10 * time.Millisecond
)

// ErrNoAnalysis is returned by Play when no analyzed session is loaded or
// the session has no beats to play.
var ErrNoAnalysis = errors.New("remix: no analyzed session loaded")

// Clock reports the current position of the output stream.
type Clock interface {
	Now() time.Duration
}

// Sink accepts sample clips pinned to future stream times.
type Sink interface {
	ScheduleAt(at time.Duration, samples []float64)
}

// Observer is called as each scheduled beat's stream time is reached.
type Observer func(beatIndex int)

// beatEvent records a scheduled beat so the observer can be notified when
// the clock catches up to it.
type beatEvent struct {
	at    time.Duration
	index int
}

// Scheduler walks the beat graph and feeds clips to the sink ahead of the
// clock. Each tick it schedules beats until the lookahead horizon is covered,
// choosing the next beat sequentially or, with BranchChance probability, by
// jumping along a similarity edge.
type Scheduler struct {
	mu       sync.Mutex
	clock    Clock
	sink     Sink
	rng      *rand.Rand
	session  *Session
	settings Settings
	observer Observer

	playing   bool
	timer     *time.Timer
	current   int
	nextEvent time.Duration
	pending   []beatEvent

	tickInterval time.Duration
	lookahead    time.Duration
	fade         time.Duration
}

// NewScheduler creates a stopped scheduler over the given clock and sink.
func NewScheduler(clock Clock, sink Sink) *Scheduler {
	return &Scheduler{
		clock:        clock,
		sink:         sink,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		settings:     DefaultSettings(),
		tickInterval: defaultTickInterval,
		lookahead:    defaultLookahead,
		fade:         defaultFade,
	}
}

// SetTiming overrides the tick, lookahead and fade durations. Non-positive
// values keep the current setting. Call before Play.
func (s *Scheduler) SetTiming(tick, lookahead, fade time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tick > 0 {
		s.tickInterval = tick
	}
	if lookahead > 0 {
		s.lookahead = lookahead
	}
	if fade >= 0 {
		s.fade = fade
	}
}

// SetObserver registers the beat callback. Pass nil to clear it. The callback
// runs without the scheduler lock held.
func (s *Scheduler) SetObserver(obs Observer) {
	s.mu.Lock()
	s.observer = obs
	s.mu.Unlock()
}

// Load installs a new session, stopping playback and resetting the position
// to the first beat.
func (s *Scheduler) Load(sess *Session) {
	s.mu.Lock()
	s.stopLocked()
	s.session = sess
	s.current = 0
	s.mu.Unlock()
}

// Play starts or resumes scheduling from the current beat.
func (s *Scheduler) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.Data == nil || len(s.session.Data.Beats) == 0 {
		return ErrNoAnalysis
	}
	if s.playing {
		return nil
	}

	s.playing = true
	s.nextEvent = s.clock.Now()
	s.timer = time.AfterFunc(0, s.tick)
	return nil
}

// Pause stops scheduling. Already queued audio drains from the sink; the
// current beat position is kept so Play resumes in place. Safe to call when
// already paused.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.playing = false
	s.pending = nil
}

// Update applies a partial settings change, effective from the next
// scheduling decision.
func (s *Scheduler) Update(u SettingsUpdate) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = u.apply(s.settings)
	return s.settings
}

// Settings returns the current branching settings.
func (s *Scheduler) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Session returns the loaded session, or nil.
func (s *Scheduler) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// CurrentBeat returns the index of the next beat to be scheduled.
func (s *Scheduler) CurrentBeat() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Playing reports whether the scheduler is running.
func (s *Scheduler) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// tick tops up the scheduled horizon and fires observer callbacks for beats
// the clock has reached.
func (s *Scheduler) tick() {
	s.mu.Lock()

	if !s.playing {
		s.mu.Unlock()
		return
	}

	now := s.clock.Now()

	data := s.session.Data
	buf := s.session.Buffer
	st := s.settings

	empties := 0
	for s.nextEvent < now+s.lookahead {
		if s.current < 0 || s.current >= len(data.Beats) {
			// leave the cursor alone so the bad state stays inspectable
			log.Printf("[SCHED] beat index %d out of range (have %d beats), skipping",
				s.current, len(data.Beats))
			break
		}
		beat := data.Beats[s.current]
		if beat.Duration <= 0 {
			// a graph of zero-length beats must not spin the tick forever
			empties++
			if empties > len(data.Beats) {
				break
			}
			s.current = nextBeat(data, s.current, st, s.rng)
			continue
		}
		empties = 0

		clip := renderClip(buf.Samples, buf.FrameAt(beat.Start),
			buf.FrameAt(beat.Start+beat.Duration), s.fadeFrames(buf.SampleRate))
		s.sink.ScheduleAt(s.nextEvent, clip)
		s.pending = append(s.pending, beatEvent{at: s.nextEvent, index: s.current})

		s.nextEvent += time.Duration(beat.Duration * float64(time.Second))
		s.current = nextBeat(data, s.current, st, s.rng)
	}

	// drain events the clock has reached, including any scheduled just now,
	// so a beat audible at this instant is reported by this same tick
	var due []beatEvent
	for len(s.pending) > 0 && s.pending[0].at <= now {
		due = append(due, s.pending[0])
		s.pending = s.pending[1:]
	}

	if s.playing {
		s.timer = time.AfterFunc(s.tickInterval, s.tick)
	}
	obs := s.observer
	s.mu.Unlock()

	if obs != nil {
		for _, ev := range due {
			obs(ev.index)
		}
	}
}

func (s *Scheduler) fadeFrames(sampleRate int) int {
	return int(s.fade.Seconds() * float64(sampleRate))
}

// nextBeat picks the beat to follow cur. The sequential successor wraps at
// the end of the track; a branch, when taken, jumps along a similarity edge
// but never to the beat the sequence would reach anyway.
func nextBeat(data *analysis.Data, cur int, st Settings, rng *rand.Rand) int {
	sequential := (cur + 1) % len(data.Beats)

	if rng.Float64() >= st.BranchChance {
		return sequential
	}

	var candidates []int
	for _, e := range data.EdgesFrom(cur) {
		if e.Similarity >= st.SimilarityThreshold && e.Dest != sequential {
			candidates = append(candidates, e.Dest)
		}
	}
	if len(candidates) == 0 {
		return sequential
	}
	return candidates[rng.Intn(len(candidates))]
}

// renderClip cuts [start, end) from samples and applies linear fades to both
// ends. Fades are capped at half the clip so they never cross.
func renderClip(samples []float64, start, end, fadeFrames int) []float64 {
	if start < 0 {
		start = 0
	}
	if end > len(samples) {
		end = len(samples)
	}
	if end <= start {
		return nil
	}

	clip := make([]float64, end-start)
	copy(clip, samples[start:end])

	fade := fadeFrames
	if fade > len(clip)/2 {
		fade = len(clip) / 2
	}
	for i := 0; i < fade; i++ {
		g := float64(i+1) / float64(fade+1)
		clip[i] *= g
		clip[len(clip)-1-i] *= g
	}
	return clip
}
