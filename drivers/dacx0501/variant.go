package dacx0501

import "dacx0501-go/x/mathx"

// Variant describes one member of the family. Implementations are empty
// structs so the width is fixed by the type a Device is instantiated with.
type Variant interface {
	Name() string
	// Bits is the output code resolution.
	Bits() uint8
}

// DAC80501 is the 16-bit member.
type DAC80501 struct{}

func (DAC80501) Name() string { return "DAC80501" }
func (DAC80501) Bits() uint8  { return 16 }

// DAC70501 is the 14-bit member.
type DAC70501 struct{}

func (DAC70501) Name() string { return "DAC70501" }
func (DAC70501) Bits() uint8  { return 14 }

// DAC60501 is the 12-bit member.
type DAC60501 struct{}

func (DAC60501) Name() string { return "DAC60501" }
func (DAC60501) Bits() uint8  { return 12 }

const dataFieldBits = 16

func mask(v Variant) uint32 { return mathx.LowMask[uint32](v.Bits()) }
func shift(v Variant) uint8 { return dataFieldBits - v.Bits() }

// MaxLevel is the largest output level V can represent.
func MaxLevel[V Variant]() uint32 {
	var v V
	return mask(v)
}

// Shift is the left shift that MSB-aligns a V code in DAC-DATA.
func Shift[V Variant]() uint8 {
	var v V
	return shift(v)
}

// Validate checks level against the range of V and returns the aligned
// DAC-DATA word. No bits are dropped on success.
func Validate[V Variant](level uint32) (uint16, error) {
	if level > MaxLevel[V]() {
		return 0, ErrOutOfRange
	}
	return EncodeDACData[V](uint16(level)), nil
}

// ClampOrMask keeps the low Bits() of level and aligns it. Overflow bits are
// silently discarded.
func ClampOrMask[V Variant](level uint32) uint16 {
	return EncodeDACData[V](uint16(level & MaxLevel[V]()))
}
