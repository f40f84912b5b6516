package dacx0501

// ---------------- Output level ----------------

// SetOutputLevel writes level to DAC-DATA. It returns ErrOutOfRange without
// touching the bus when level does not fit the variant.
func (d *Device[V]) SetOutputLevel(level uint32) error {
	w, err := Validate[V](level)
	if err != nil {
		return err
	}
	return d.writeRegister(RegDACDATA, w)
}

// SetOutputLevelUnchecked writes level to DAC-DATA without bounds checking.
// Bits above the variant width are dropped.
func (d *Device[V]) SetOutputLevelUnchecked(level uint32) error {
	return d.writeRegister(RegDACDATA, ClampOrMask[V](level))
}

// ReadOutputLevel returns the code currently held in DAC-DATA.
func (d *Device[V]) ReadOutputLevel() (uint16, error) {
	w, err := d.readRegister(RegDACDATA)
	if err != nil {
		return 0, err
	}
	return DecodeDACData[V](w), nil
}

// ---------------- GAIN ----------------

// SetOutputGain sets the output buffer gain. 2x is useful together with the
// reference divider set to Half.
func (d *Device[V]) SetOutputGain(g Gain) error {
	return d.writeRegister(RegGAIN, EncodeGain(g))
}

func (d *Device[V]) ReadGain() (Gain, error) {
	w, err := d.readRegister(RegGAIN)
	if err != nil {
		return Gain1X, err
	}
	return DecodeGain(w), nil
}

// ---------------- CONFIG ----------------

// SetReferenceDivider updates REF-DIV and keeps the current power state.
// A divider that leaves too little headroom to VDD raises the reference alarm.
func (d *Device[V]) SetReferenceDivider(div RefDivider) error {
	c := d.baseConfig()
	c.Divider = div
	return d.WriteConfig(c)
}

// SetPowerState updates DAC-PWDWN and keeps the current reference divider.
func (d *Device[V]) SetPowerState(p PowerState) error {
	c := d.baseConfig()
	c.Power = p
	return d.WriteConfig(c)
}

// WriteConfig writes the whole CONFIG register. The shadow follows only on
// success.
func (d *Device[V]) WriteConfig(c ConfigState) error {
	if err := d.writeRegister(RegCONFIG, c.word()); err != nil {
		return err
	}
	d.cfg, d.cfgKnown = c, true
	return nil
}

// Config returns the CONFIG shadow. ok is false while nothing has been
// written or read back since New.
func (d *Device[V]) Config() (c ConfigState, ok bool) {
	return d.cfg, d.cfgKnown
}

// SyncConfig reads CONFIG from the device and replaces the shadow with it.
func (d *Device[V]) SyncConfig() (ConfigState, error) {
	w, err := d.readRegister(RegCONFIG)
	if err != nil {
		return ConfigState{}, err
	}
	d.cfg, d.cfgKnown = DecodeConfig(w), true
	return d.cfg, nil
}

// baseConfig is the word partial setters merge into. With no shadow yet the
// power-up default is assumed.
func (d *Device[V]) baseConfig() ConfigState {
	if !d.cfgKnown {
		return DefaultConfig
	}
	return d.cfg
}

// ---------------- STATUS ----------------

// ReadAlarmStatus reads STATUS. RefAlarm is set when the headroom between VDD
// and the reference is below the analog threshold; the output then reads 0 V
// but DAC-DATA is kept.
func (d *Device[V]) ReadAlarmStatus() (AlarmStatus, error) {
	w, err := d.readRegister(RegSTATUS)
	if err != nil {
		return 0, err
	}
	return DecodeStatus(w), nil
}
