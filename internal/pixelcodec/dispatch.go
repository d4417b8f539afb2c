package pixelcodec

// Dispatch is a function-pointer table chosen once at startup: a stage
// reads detected CPU features once at init and stores the best available
// implementation here; the table is read-only thereafter.
//
// This repo ships only the scalar reference for every conversion (see
// package doc and DESIGN.md): there is no assembly kernel in the example
// pack to ground a SIMD variant on, so Detect always returns the scalar
// table. The shape — a struct of function pointers selected once and
// never swapped mid-frame — is preserved so a future assembly backend
// plugs in without changing call sites.
type Dispatch struct {
	SDI10ToUYVY   func(src []byte, dst []uint16)
	UYVYToSDI10   func(src []uint16, dst []byte)
	UYVYToV210    func(src []uint16, dst []byte)
	V210ToUYVY    func(src []byte, dst []uint16)
	UYVYToPlanar8 func(src []uint16, y, u, v []uint8)
	Planar8ToUYVY func(y, u, v []uint8, dst []uint16)
}

// scalarDispatch is the only variant this repo registers.
var scalarDispatch = Dispatch{
	SDI10ToUYVY:   SDI10ToUYVY,
	UYVYToSDI10:   UYVYToSDI10,
	UYVYToV210:    UYVYToV210,
	V210ToUYVY:    V210ToUYVY,
	UYVYToPlanar8: UYVYToPlanar8,
	Planar8ToUYVY: Planar8ToUYVY,
}

// Detect selects the best available implementation set for the running
// CPU. Called once per stage at init; the result must not be mutated or
// re-detected mid-frame.
func Detect() *Dispatch {
	return &scalarDispatch
}
