package audio

import (
	"math"
	"testing"
	"time"
)

func readFrames(t *testing.T, q *clipQueue, numFrames int) []int16 {
	t.Helper()
	buf := make([]byte, numFrames*2)
	n, err := q.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("Read returned %d bytes, want %d", n, len(buf))
	}
	out := make([]int16, numFrames)
	for i := range out {
		out[i] = int16(buf[i*2]) | int16(buf[i*2+1])<<8
	}
	return out
}

func TestClipQueueSilenceWhenEmpty(t *testing.T) {
	q := newClipQueue(44100)
	frames := readFrames(t, q, 128)
	for i, v := range frames {
		if v != 0 {
			t.Fatalf("frame %d = %d, want silence", i, v)
		}
	}
	if got := q.Now(); got != framesToDuration(128, 44100) {
		t.Errorf("Now() = %v after 128 frames", got)
	}
}

func TestClipQueueScheduledClipPlaysAtOffset(t *testing.T) {
	q := newClipQueue(1000)

	// 10 frames of full-scale signal starting at frame 5
	samples := make([]float64, 10)
	for i := range samples {
		samples[i] = 0.5
	}
	q.ScheduleAt(framesToDuration(5, 1000), samples)

	frames := readFrames(t, q, 20)
	for i := 0; i < 5; i++ {
		if frames[i] != 0 {
			t.Errorf("frame %d = %d, want leading silence", i, frames[i])
		}
	}
	amp := 0.5
	want := int16(amp * 32767)
	for i := 5; i < 15; i++ {
		if frames[i] != want {
			t.Errorf("frame %d = %d, want %d", i, frames[i], want)
		}
	}
	for i := 15; i < 20; i++ {
		if frames[i] != 0 {
			t.Errorf("frame %d = %d, want trailing silence", i, frames[i])
		}
	}
}

func TestClipQueueClipSpansReads(t *testing.T) {
	q := newClipQueue(1000)
	samples := make([]float64, 30)
	for i := range samples {
		samples[i] = 0.25
	}
	q.ScheduleAt(0, samples)

	amp := 0.25
	want := int16(amp * 32767)
	first := readFrames(t, q, 20)
	for i, v := range first {
		if v != want {
			t.Fatalf("first read frame %d = %d, want %d", i, v, want)
		}
	}
	second := readFrames(t, q, 20)
	for i := 0; i < 10; i++ {
		if second[i] != want {
			t.Errorf("second read frame %d = %d, want %d", i, second[i], want)
		}
	}
	for i := 10; i < 20; i++ {
		if second[i] != 0 {
			t.Errorf("second read frame %d = %d, want silence", i, second[i])
		}
	}
}

func TestClipQueueOverlappingClipsMix(t *testing.T) {
	q := newClipQueue(1000)
	a := []float64{0.25, 0.25, 0.25, 0.25}
	b := []float64{0.25, 0.25, 0.25, 0.25}
	q.ScheduleAt(0, a)
	q.ScheduleAt(framesToDuration(2, 1000), b)

	frames := readFrames(t, q, 6)
	singleAmp, doubleAmp := 0.25, 0.5
	single := int16(singleAmp * 32767)
	double := int16(doubleAmp * 32767)
	wants := []int16{single, single, double, double, single, single}
	for i, w := range wants {
		if frames[i] != w {
			t.Errorf("frame %d = %d, want %d", i, frames[i], w)
		}
	}
}

func TestClipQueueLateScheduleDropsElapsedPortion(t *testing.T) {
	q := newClipQueue(1000)
	readFrames(t, q, 10) // cursor at frame 10

	samples := []float64{0.5, 0.5, 0.5, 0.5}
	q.ScheduleAt(framesToDuration(8, 1000), samples)

	frames := readFrames(t, q, 4)
	amp := 0.5
	want := int16(amp * 32767)
	// frames 8 and 9 are gone; 10 and 11 remain
	if frames[0] != want || frames[1] != want {
		t.Errorf("remaining portion = [%d %d], want [%d %d]",
			frames[0], frames[1], want, want)
	}
	if frames[2] != 0 || frames[3] != 0 {
		t.Errorf("trailing frames = [%d %d], want silence", frames[2], frames[3])
	}
}

func TestClipQueueVolumeAndClipping(t *testing.T) {
	q := newClipQueue(1000)
	q.SetVolume(0.5)
	q.ScheduleAt(0, []float64{1.0, 1.0})
	frames := readFrames(t, q, 2)
	amp := 0.5
	want := int16(amp * 32767)
	if frames[0] != want {
		t.Errorf("attenuated frame = %d, want %d", frames[0], want)
	}

	q.SetVolume(1.0)
	q.ScheduleAt(q.Now(), []float64{1.5, -1.5})
	frames = readFrames(t, q, 2)
	if frames[0] != 32767 {
		t.Errorf("positive overdrive = %d, want 32767", frames[0])
	}
	if frames[1] != -32767 {
		t.Errorf("negative overdrive = %d, want -32767", frames[1])
	}

	q.SetVolume(1.5)
	if v := q.Volume(); v != 1.0 {
		t.Errorf("volume clamp high: got %f", v)
	}
	q.SetVolume(-0.5)
	if v := q.Volume(); v != 0.0 {
		t.Errorf("volume clamp low: got %f", v)
	}
}

func TestClipQueueNowAdvancesWithReads(t *testing.T) {
	q := newClipQueue(44100)
	if q.Now() != 0 {
		t.Fatalf("fresh queue Now() = %v, want 0", q.Now())
	}
	readFrames(t, q, 44100)
	got := q.Now()
	if math.Abs(got.Seconds()-1.0) > 1e-9 {
		t.Errorf("Now() after one second of frames = %v", got)
	}
}

func TestFrameDurationRoundTrip(t *testing.T) {
	for _, frames := range []int64{0, 1, 441, 44100, 96000} {
		d := framesToDuration(frames, 44100)
		if got := durationToFrames(d, 44100); got != frames {
			t.Errorf("round trip %d frames: got %d", frames, got)
		}
	}
	if d := framesToDuration(22050, 44100); d != 500*time.Millisecond {
		t.Errorf("22050 frames at 44.1kHz = %v, want 500ms", d)
	}
}
