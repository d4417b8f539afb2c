package pixelcodec

import "testing"

func TestPlanar10RoundTrip(t *testing.T) {
	const pixels = 16
	y := make([]uint16, pixels)
	u := make([]uint16, pixels/2)
	v := make([]uint16, pixels/2)
	for i := range y {
		y[i] = clip10(uint16(i*61 + 5))
	}
	for i := range u {
		u[i] = clip10(uint16(i*97 + 9))
		v[i] = clip10(uint16(i*131 + 13))
	}

	uyvy := make([]uint16, pixels*2)
	Planar10ToUYVY(y, u, v, uyvy)

	y2 := make([]uint16, pixels)
	u2 := make([]uint16, pixels/2)
	v2 := make([]uint16, pixels/2)
	UYVYToPlanar10(uyvy, y2, u2, v2)

	for i := range y {
		if y2[i] != y[i] {
			t.Fatalf("y[%d]: got %d want %d", i, y2[i], y[i])
		}
	}
	for i := range u {
		if u2[i] != u[i] || v2[i] != v[i] {
			t.Fatalf("chroma[%d]: got (%d,%d) want (%d,%d)", i, u2[i], v2[i], u[i], v[i])
		}
	}
}

func TestPlanar8RoundTripWithinOneLSB(t *testing.T) {
	const pixels = 16
	y := make([]uint8, pixels)
	u := make([]uint8, pixels/2)
	v := make([]uint8, pixels/2)
	for i := range y {
		y[i] = clip8(uint8(i*17 + 3))
	}
	for i := range u {
		u[i] = clip8(uint8(i*23 + 2))
		v[i] = clip8(uint8(i*29 + 1))
	}

	uyvy := make([]uint16, pixels*2)
	Planar8ToUYVY(y, u, v, uyvy)

	y2 := make([]uint8, pixels)
	u2 := make([]uint8, pixels/2)
	v2 := make([]uint8, pixels/2)
	UYVYToPlanar8(uyvy, y2, u2, v2)

	diff := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}

	for i := range y {
		if diff(y2[i], y[i]) > 1 {
			t.Fatalf("y[%d]: got %d want %d", i, y2[i], y[i])
		}
	}
	for i := range u {
		if diff(u2[i], u[i]) > 1 || diff(v2[i], v[i]) > 1 {
			t.Fatalf("chroma[%d]: got (%d,%d) want (%d,%d)", i, u2[i], v2[i], u[i], v[i])
		}
	}
}
