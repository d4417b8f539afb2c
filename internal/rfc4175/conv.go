package rfc4175

import (
	"encoding/binary"

	"github.com/mediabridge/sdiip/internal/media"
	"github.com/mediabridge/sdiip/internal/pixelcodec"
)

// InputPlanes selects how a picture FrameUnit's planes are interpreted by
// the packetizer, and OutputPlanes how the depacketizer renders its
// result — mirroring internal/sdienc and internal/sdidec's enums.
type InputPlanes int

const (
	InputV210 InputPlanes = iota
	InputPlanar8
	InputPlanar10
)

type OutputPlanes int

const (
	OutputV210 OutputPlanes = iota
	OutputPlanar8
	OutputPlanar10
)

func toUYVY(pic *media.FrameUnit, input InputPlanes, w, h int) []uint16 {
	uyvy := make([]uint16, w*h*2)
	if pic == nil || len(pic.Planes) == 0 {
		return uyvy
	}
	switch input {
	case InputPlanar8:
		pixelcodec.Planar8ToUYVY(pic.Planes[0].Data, pic.Planes[1].Data, pic.Planes[2].Data, uyvy)
	case InputPlanar10:
		pixelcodec.Planar10ToUYVY(bytesToWords(pic.Planes[0].Data), bytesToWords(pic.Planes[1].Data), bytesToWords(pic.Planes[2].Data), uyvy)
	default:
		pixelcodec.V210ToUYVY(pic.Planes[0].Data, uyvy)
	}
	return uyvy
}

func buildPicture(uyvy []uint16, output OutputPlanes, w, h int) *media.FrameUnit {
	switch output {
	case OutputPlanar8:
		y := make([]byte, w*h)
		u := make([]byte, w*h/2)
		v := make([]byte, w*h/2)
		pixelcodec.UYVYToPlanar8(uyvy, y, u, v)
		return media.NewPicture([]media.Plane{{Data: y, Stride: w}, {Data: u, Stride: w / 2}, {Data: v, Stride: w / 2}})
	case OutputPlanar10:
		y := make([]uint16, w*h)
		u := make([]uint16, w*h/2)
		v := make([]uint16, w*h/2)
		pixelcodec.UYVYToPlanar10(uyvy, y, u, v)
		return media.NewPicture([]media.Plane{
			{Data: wordsToBytes(y), Stride: w * 2},
			{Data: wordsToBytes(u), Stride: w},
			{Data: wordsToBytes(v), Stride: w},
		})
	default:
		dst := make([]byte, w*8/3*h)
		pixelcodec.UYVYToV210(uyvy, dst)
		return media.NewPicture([]media.Plane{{Data: dst, Stride: w * 8 / 3}})
	}
}

func bytesToWords(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return out
}

func wordsToBytes(w []uint16) []byte {
	out := make([]byte, len(w)*2)
	for i, v := range w {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}
