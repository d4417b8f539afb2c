package sdidec

import (
	"encoding/binary"

	"github.com/mediabridge/sdiip/internal/geometry"
	"github.com/mediabridge/sdiip/internal/media"
)

const audioChannels = 16

// audioAssembler accumulates S32 16-channel 48kHz audio samples across one
// frame's worth of HANC audio-data packets, then corrects the final count
// for fractional frame rates.
type audioAssembler struct {
	samples [][audioChannels]int32
	lastPair [8]uint32 // rolling 2-sample word for S337 detection, one entry per channel pair
	lastPairValid [8]bool
}

func newAudioAssembler() *audioAssembler {
	return &audioAssembler{}
}

// appendGroup appends 4 samples for the 4 channels of one audio group
// (0-3). Audio-data packets within a group arrive 4 consecutive samples
// at a time for that group's 4 channels; each call appends one new frame
// slot, with channels not in this group carried over from the prior slot.
func (a *audioAssembler) appendGroup(group int, samples [4]int32) {
	var next [audioChannels]int32
	if len(a.samples) > 0 {
		next = a.samples[len(a.samples)-1]
	}
	for ch := 0; ch < 4; ch++ {
		next[group*4+ch] = samples[ch]
	}
	a.samples = append(a.samples, next)

	pair := group * 2
	a.lastPair[pair] = uint32(samples[0])<<16 | uint32(uint16(samples[1]))
	a.lastPairValid[pair] = true
	a.lastPair[pair+1] = uint32(samples[2])<<16 | uint32(uint16(samples[3]))
	a.lastPairValid[pair+1] = true
}

func (a *audioAssembler) lastPairSample(pair int) (uint32, bool) {
	if pair < 0 || pair >= len(a.lastPair) {
		return 0, false
	}
	return a.lastPair[pair], a.lastPairValid[pair]
}

// fractional-rate cadence tables: extra sample counts cycled per frame to
// keep 48kHz audio aligned with a non-integer video frame rate.
var cadence2997 = []int{1, 0, 1, 0, 1}
var cadence5994 = []int{1, 1, 1, 1, 0}

func baseAudioSamples(fps geometry.Rational) int {
	if fps.Num == 0 {
		return 0
	}
	return int(48000 * fps.Den / fps.Num)
}

// finish packs the accumulated samples into an S32 interleaved audio
// FrameUnit, correcting the final sample count for fractional rates: for
// 30000/1001 frames the cycle {1,0,1,0,1} extra samples is added, for
// 60000/1001 {1,1,1,1,0}, and 24000/1001 uses the base count unmodified.
func (a *audioAssembler) finish(fps geometry.Rational, frameIndex int) *media.FrameUnit {
	want := baseAudioSamples(fps)
	switch {
	case fps.Num == 30000 && fps.Den == 1001:
		want += cadence2997[frameIndex%len(cadence2997)]
	case fps.Num == 60000 && fps.Den == 1001:
		want += cadence5994[frameIndex%len(cadence5994)]
	}
	if want > 0 && want != len(a.samples) {
		a.samples = resizeAudio(a.samples, want)
	}

	out := make([]byte, 0, len(a.samples)*audioChannels*4)
	for _, frame := range a.samples {
		for _, s := range frame {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(s))
			out = append(out, b[:]...)
		}
	}
	fu := media.NewBlock(out)
	fu.SetAttr("channels", audioChannels)
	fu.SetAttr("sample_rate", 48000)
	return fu
}

// resizeAudio truncates or pads (by repeating the last frame) the sample
// buffer to exactly want frames.
func resizeAudio(samples [][audioChannels]int32, want int) [][audioChannels]int32 {
	if len(samples) >= want {
		return samples[:want]
	}
	out := make([][audioChannels]int32, want)
	copy(out, samples)
	var last [audioChannels]int32
	if len(samples) > 0 {
		last = samples[len(samples)-1]
	}
	for i := len(samples); i < want; i++ {
		out[i] = last
	}
	return out
}
