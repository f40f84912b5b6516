package dacx0501

import "errors"

var errBus = errors.New("bus fault")

// fakeSPI records every transaction and answers reads with reply.
type fakeSPI struct {
	frames [][]byte
	reply  [frameLen]byte
	err    error
}

func (f *fakeSPI) Tx(w, r []byte) error {
	f.frames = append(f.frames, append([]byte(nil), w...))
	if f.err != nil {
		return f.err
	}
	copy(r, f.reply[:])
	return nil
}

func (f *fakeSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := f.Tx([]byte{b}, r[:])
	return r[0], err
}

func (f *fakeSPI) replyWord(w uint16) {
	f.reply = [frameLen]byte{0, byte(w >> 8), byte(w)}
}
