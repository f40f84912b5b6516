package dacx0501

// Register addresses and bitfields shared by the DAC80501/DAC70501/DAC60501.

// Register is the command byte address of an on-chip register.
type Register uint8

const (
	// --- Command byte addresses (byte 0 of every frame) ---
	RegNOOP    Register = 0x00
	RegDEVID   Register = 0x01 // reserved, not implemented
	RegSYNC    Register = 0x02 // reserved, not implemented
	RegCONFIG  Register = 0x03 // R/W
	RegGAIN    Register = 0x04 // R/W
	RegTRIGGER Register = 0x05 // reserved, not implemented
	RegSTATUS  Register = 0x07 // R
	RegDACDATA Register = 0x08 // R/W, MSB aligned

	// Set in byte 0 to request a register read.
	readFlag = 0x80

	frameLen = 3

	// --- CONFIG (0x03) ---
	cfgRefDivBit  = 8 // 1 = reference divided by 2
	cfgPowerDnBit = 0 // 1 = output tied to GND through 1 kOhm

	// --- GAIN (0x04) ---
	gainBuffBit = 0 // 1 = buffer gain of 2

	// --- STATUS (0x07) ---
	statusRefAlarmBit = 15
)

func (r Register) String() string {
	switch r {
	case RegNOOP:
		return "NOOP"
	case RegDEVID:
		return "DEVID"
	case RegSYNC:
		return "SYNC"
	case RegCONFIG:
		return "CONFIG"
	case RegGAIN:
		return "GAIN"
	case RegTRIGGER:
		return "TRIGGER"
	case RegSTATUS:
		return "STATUS"
	case RegDACDATA:
		return "DACDATA"
	default:
		return "UNKNOWN"
	}
}
