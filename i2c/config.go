package i2cdev

// Conf addresses a device behind a bridge.
type Conf struct {
	// Index of the bridge.
	Index int
	// Addr is 7 bit device address.
	Addr uint8
}

func (c *Conf) Default(a uint8) {
	if c.Addr == 0 {
		c.Addr = a
	}
}
