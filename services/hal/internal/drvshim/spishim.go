package drvshim

import (
	"errors"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"
)

var errHalfDuplex = errors.New("drvshim: full-duplex transfer on half-duplex port")

// SPI adapts a periph.io spi.Conn to the tinygo drivers.SPI shape so the
// same drivers run on Linux hosts.
type SPI struct {
	c spi.Conn
}

func NewSPI(c spi.Conn) SPI {
	return SPI{c: c}
}

// Tx performs one transaction. A nil r is a write-only transfer; periph
// requires equal lengths for full duplex so a short r is padded.
func (s SPI) Tx(w, r []byte) error {
	if len(r) == 0 {
		return s.c.Tx(w, nil)
	}
	if s.c.Duplex() == conn.Half {
		return errHalfDuplex
	}
	if len(r) == len(w) {
		return s.c.Tx(w, r)
	}
	n := len(w)
	if len(r) > n {
		n = len(r)
	}
	wb := make([]byte, n)
	rb := make([]byte, n)
	copy(wb, w)
	if err := s.c.Tx(wb, rb); err != nil {
		return err
	}
	copy(r, rb)
	return nil
}

// Transfer clocks out one byte and returns the byte read.
func (s SPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.Tx([]byte{b}, r[:])
	return r[0], err
}
