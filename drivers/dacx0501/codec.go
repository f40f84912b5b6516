package dacx0501

// Gain is the output buffer gain held in GAIN.BUFF-GAIN.
type Gain uint8

const (
	Gain1X Gain = iota
	Gain2X
)

// String returns "1x" or "2x".
func (g Gain) String() string {
	if g == Gain2X {
		return "2x"
	}
	return "1x"
}

// RefDivider is the reference divider held in CONFIG.REF-DIV.
type RefDivider uint8

const (
	DividerFull RefDivider = iota
	DividerHalf
)

// String returns "full" or "half".
func (d RefDivider) String() string {
	if d == DividerHalf {
		return "half"
	}
	return "full"
}

// PowerState gates the DAC output; Off ties the output to GND through 1 kOhm.
type PowerState uint8

const (
	PowerOn PowerState = iota
	PowerOff
)

// String returns "on" or "off".
func (p PowerState) String() string {
	if p == PowerOff {
		return "off"
	}
	return "on"
}

// ConfigState is the decoded CONFIG register.
type ConfigState struct {
	Divider RefDivider
	Power   PowerState
}

// DefaultConfig is the CONFIG content after power-up.
var DefaultConfig = ConfigState{Divider: DividerFull, Power: PowerOn}

// AlarmStatus is the STATUS register snapshot.
type AlarmStatus uint16

const (
	// RefAlarm is set while the reference/supply headroom is too small. The
	// reference buffer is shut down and the output sits at 0 V.
	RefAlarm AlarmStatus = 1 << statusRefAlarmBit
)

// Has reports whether flag is set.
func (s AlarmStatus) Has(flag AlarmStatus) bool { return s&flag != 0 }

// Alarm reports whether any fault flag is set.
func (s AlarmStatus) Alarm() bool { return s.Has(RefAlarm) }

// ---------------- Encoders ----------------

// EncodeConfig packs REF-DIV and DAC-PWDWN; all other bits are zero.
func EncodeConfig(div RefDivider, p PowerState) uint16 {
	var w uint16
	if div == DividerHalf {
		w |= 1 << cfgRefDivBit
	}
	if p == PowerOff {
		w |= 1 << cfgPowerDnBit
	}
	return w
}

// EncodeGain packs BUFF-GAIN.
func EncodeGain(g Gain) uint16 {
	if g == Gain2X {
		return 1 << gainBuffBit
	}
	return 0
}

// EncodeDACData places a raw code at the DAC-DATA field offset for V.
// Bits above the variant width are dropped, the low bits are zero.
func EncodeDACData[V Variant](code uint16) uint16 {
	var v V
	return (code & uint16(mask(v))) << shift(v)
}

// ---------------- Decoders ----------------

// DecodeConfig unpacks REF-DIV and DAC-PWDWN, ignoring reserved bits.
func DecodeConfig(w uint16) ConfigState {
	var c ConfigState
	if w&(1<<cfgRefDivBit) != 0 {
		c.Divider = DividerHalf
	}
	if w&(1<<cfgPowerDnBit) != 0 {
		c.Power = PowerOff
	}
	return c
}

// DecodeGain unpacks BUFF-GAIN.
func DecodeGain(w uint16) Gain {
	if w&(1<<gainBuffBit) != 0 {
		return Gain2X
	}
	return Gain1X
}

// DecodeDACData extracts the raw code from a DAC-DATA word.
func DecodeDACData[V Variant](w uint16) uint16 {
	var v V
	return w >> shift(v)
}

// DecodeStatus keeps only the defined STATUS flags.
func DecodeStatus(w uint16) AlarmStatus {
	return AlarmStatus(w) & RefAlarm
}

func (c ConfigState) word() uint16 { return EncodeConfig(c.Divider, c.Power) }

// ---------------- Frames ----------------

// Frames are MSB first: command byte, data high, data low.

func writeFrame(buf *[frameLen]byte, reg Register, val uint16) {
	buf[0] = byte(reg)
	buf[1] = byte(val >> 8)
	buf[2] = byte(val)
}

func readFrame(buf *[frameLen]byte, reg Register) {
	buf[0] = byte(reg) | readFlag
	buf[1] = 0
	buf[2] = 0
}

func frameWord(buf *[frameLen]byte) uint16 {
	return uint16(buf[1])<<8 | uint16(buf[2])
}
