package dacx0501

// SPI register operations. Each call is exactly one transaction.

func (d *Device[V]) writeRegister(reg Register, val uint16) error {
	writeFrame(&d.w, reg, val)
	if err := d.spi.Tx(d.w[:], nil); err != nil {
		return &TransportError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}

func (d *Device[V]) readRegister(reg Register) (uint16, error) {
	readFrame(&d.w, reg)
	d.r = [frameLen]byte{}
	if err := d.spi.Tx(d.w[:], d.r[:]); err != nil {
		return 0, &TransportError{Op: "read", Reg: reg, Err: err}
	}
	return frameWord(&d.r), nil
}
