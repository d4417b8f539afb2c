package sdienc

import (
	"encoding/binary"

	"github.com/mediabridge/sdiip/internal/geometry"
	"github.com/mediabridge/sdiip/internal/media"
)

const audioChannels = 16

// decodeAudioBlock unpacks an S32 16-channel interleaved audio FrameUnit
// (as produced by internal/sdidec) back into per-frame channel samples.
func decodeAudioBlock(fu *media.FrameUnit) [][audioChannels]int32 {
	if fu == nil || len(fu.Block) == 0 {
		return nil
	}
	frameBytes := audioChannels * 4
	n := len(fu.Block) / frameBytes
	out := make([][audioChannels]int32, n)
	for i := 0; i < n; i++ {
		for ch := 0; ch < audioChannels; ch++ {
			off := i*frameBytes + ch*4
			out[i][ch] = int32(binary.LittleEndian.Uint32(fu.Block[off:]))
		}
	}
	return out
}

// audioCursor tracks how many audio samples have been emitted so far
// across the frame, so each line emits just enough audio-data packets to
// track the ideal samples*line/full_height cadence.
type audioCursor struct {
	samples [][audioChannels]int32
	emitted int
}

func newAudioCursor(samples [][audioChannels]int32, f *geometry.Format) *audioCursor {
	return &audioCursor{samples: samples}
}

// idealCount returns how many audio samples should have been emitted by
// the end of line ln out of full_height.
func (c *audioCursor) idealCount(ln, fullHeight int) int {
	if fullHeight == 0 {
		return 0
	}
	return len(c.samples) * ln / fullHeight
}

// next returns the next unemitted sample's 4 channels for the given
// group (0-3), or false if no more samples remain.
func (c *audioCursor) next(group int) ([4]int32, bool) {
	if c.emitted >= len(c.samples) {
		return [4]int32{}, false
	}
	frame := c.samples[c.emitted]
	var ch [4]int32
	for i := 0; i < 4; i++ {
		ch[i] = frame[group*4+i]
	}
	return ch, true
}

func (c *audioCursor) advance() {
	c.emitted++
}
