package dacx0501

import (
	"dacx0501-go/x/mathx"

	"periph.io/x/conn/v3/physic"
)

// InternalRef is the on-chip 2.5 V reference.
const InternalRef physic.ElectricPotential = 2500 * physic.MilliVolt

// Reference describes the analog setup used to convert between a voltage
// and an output level:
//
//	VOUT = level / 2^N * VRef / DIV * GAIN
type Reference struct {
	VRef    physic.ElectricPotential
	Divider RefDivider
	Gain    Gain
}

// FullScale is the voltage matching a level of 2^N.
func (r Reference) FullScale() physic.ElectricPotential {
	fs := r.VRef
	if r.Divider == DividerHalf {
		fs /= 2
	}
	if r.Gain == Gain2X {
		fs *= 2
	}
	return fs
}

// LevelFor converts v to the nearest output level for V. Voltages below zero
// or above full scale return ErrOutOfRange.
func LevelFor[V Variant](r Reference, v physic.ElectricPotential) (uint32, error) {
	fs := r.FullScale()
	if fs <= 0 || v < 0 || v > fs {
		return 0, ErrOutOfRange
	}
	var vt V
	steps := uint64(1) << vt.Bits()
	code := mathx.RoundDiv(uint64(v)*steps, uint64(fs))
	return uint32(mathx.Min(code, uint64(MaxLevel[V]()))), nil
}

// VoltageOf is the nominal output voltage for level.
func VoltageOf[V Variant](r Reference, level uint32) physic.ElectricPotential {
	var vt V
	level &= MaxLevel[V]()
	return physic.ElectricPotential((int64(r.FullScale()) * int64(level)) >> vt.Bits())
}

// SetOutputVoltage converts v with r and writes the resulting level. r must
// match the divider and gain programmed on the device.
func (d *Device[V]) SetOutputVoltage(r Reference, v physic.ElectricPotential) error {
	level, err := LevelFor[V](r, v)
	if err != nil {
		return err
	}
	return d.SetOutputLevel(level)
}
