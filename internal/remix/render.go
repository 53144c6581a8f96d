package remix

import "math/rand"

// Render walks the beat graph offline and concatenates declicked beat clips
// into a single mono stream of at least the requested length. Useful for
// bouncing a remix to a file without opening an audio device.
func Render(sess *Session, st Settings, seconds float64, rng *rand.Rand) []float64 {
	if sess == nil || sess.Data == nil || len(sess.Data.Beats) == 0 || seconds <= 0 {
		return nil
	}

	st = st.clamped()
	buf := sess.Buffer
	data := sess.Data
	fadeFrames := int(defaultFade.Seconds() * float64(buf.SampleRate))
	targetFrames := int(seconds * float64(buf.SampleRate))

	out := make([]float64, 0, targetFrames)
	cur := 0
	empties := 0
	for len(out) < targetFrames {
		if cur < 0 || cur >= len(data.Beats) {
			cur = 0
		}
		beat := data.Beats[cur]
		clip := renderClip(buf.Samples, buf.FrameAt(beat.Start),
			buf.FrameAt(beat.Start+beat.Duration), fadeFrames)
		if len(clip) == 0 {
			// a graph of zero-length beats would otherwise spin forever
			empties++
			if empties > len(data.Beats) {
				break
			}
		} else {
			empties = 0
			out = append(out, clip...)
		}
		cur = nextBeat(data, cur, st, rng)
	}
	return out
}
