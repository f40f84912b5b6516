package dacx0501

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/physic"
)

func TestFullScale(t *testing.T) {
	cases := []struct {
		r    Reference
		want physic.ElectricPotential
	}{
		{Reference{VRef: InternalRef}, 2500 * physic.MilliVolt},
		{Reference{VRef: InternalRef, Divider: DividerHalf}, 1250 * physic.MilliVolt},
		{Reference{VRef: InternalRef, Divider: DividerHalf, Gain: Gain2X}, 2500 * physic.MilliVolt},
		{Reference{VRef: InternalRef, Gain: Gain2X}, 5 * physic.Volt},
	}
	for _, c := range cases {
		if got := c.r.FullScale(); got != c.want {
			t.Fatalf("%+v: FullScale=%s want %s", c.r, got, c.want)
		}
	}
}

func TestLevelFor(t *testing.T) {
	r := Reference{VRef: InternalRef}
	lvl, err := LevelFor[DAC60501](r, 1250*physic.MilliVolt)
	if err != nil || lvl != 2048 {
		t.Fatalf("midscale: %d err=%v", lvl, err)
	}
	lvl, err = LevelFor[DAC80501](r, InternalRef)
	if err != nil || lvl != 65535 {
		t.Fatalf("full scale clamps to max: %d err=%v", lvl, err)
	}
	if _, err := LevelFor[DAC80501](r, InternalRef+physic.MilliVolt); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("above full scale: err=%v", err)
	}
	if _, err := LevelFor[DAC80501](r, -physic.MilliVolt); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("negative: err=%v", err)
	}
	if _, err := LevelFor[DAC80501](Reference{}, 0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("zero reference: err=%v", err)
	}
}

func TestVoltageOf(t *testing.T) {
	r := Reference{VRef: InternalRef}
	if v := VoltageOf[DAC60501](r, 2048); v != 1250*physic.MilliVolt {
		t.Fatalf("VoltageOf midscale=%s", v)
	}
}

func TestSetOutputVoltage(t *testing.T) {
	f := &fakeSPI{}
	d := NewDAC60501(f)
	if err := d.SetOutputVoltage(Reference{VRef: InternalRef}, 1250*physic.MilliVolt); err != nil {
		t.Fatal(err)
	}
	if len(f.frames) != 1 || f.frames[0][1] != 0x80 || f.frames[0][2] != 0x00 {
		t.Fatalf("frames % x", f.frames)
	}
}
