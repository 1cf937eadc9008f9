// Package scanner finds devices on the I2C bus behind a CH341 bridge.
//
// Every raw address from 1 to 255 is probed with a single byte read of
// register 0 at address raw>>1. A device is reported when the byte read is
// not 0xFF and the raw address is even, i.e. once per 7 bit address.
package scanner

import (
	"fmt"
	"io"

	"github.com/aliher1911/ch341scan/ch341"
	"github.com/aliher1911/ch341scan/logging"
)

var lg = logging.New("scanner")

const Banner = "CH341 I2C Scanner"

const (
	firstAddr = 1
	lastAddr  = 256
	probeReg  = 0
)

type State int

const (
	Unopened State = iota
	Opened
	Closed
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Opened:
		return "opened"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Config struct {
	// Index of the bridge to scan.
	Index int
	// ResetProbe clears probe byte to 0xFF before every read. When unset
	// a failed read leaves previous value in place and it is classified
	// again for the current address.
	ResetProbe bool
}

func Default() Config {
	return Config{}
}

type Scanner struct {
	Config
	d     ch341.Driver
	out   io.Writer
	state State
}

func New(d ch341.Driver, out io.Writer, cfg Config) *Scanner {
	return &Scanner{
		Config: cfg,
		d:      d,
		out:    out,
	}
}

func (s *Scanner) State() State {
	return s.state
}

// Run prints the banner, scans the bus if the bridge could be opened and
// closes the bridge unconditionally. It returns number of devices found.
// Open failures are not reported, the scan is just skipped.
func (s *Scanner) Run() int {
	if s.state == Closed {
		return 0
	}
	fmt.Fprintln(s.out, Banner)
	var n int
	if err := s.openBridge(); err != nil {
		lg.Debugf("skipping scan: %s", err)
	} else {
		fmt.Fprintln(s.out, "Scanning...")
		n = s.scan()
	}
	s.closeBridge()
	return n
}

func (s *Scanner) openBridge() error {
	if err := s.d.Open(s.Index); err != nil {
		return err
	}
	s.state = Opened
	return nil
}

func (s *Scanner) scan() int {
	var n int
	// Probe byte is shared by all iterations.
	var probe byte
	for raw := firstAddr; raw < lastAddr; raw++ {
		addr := EffectiveAddress(raw)
		if s.ResetProbe {
			probe = ch341.NoDevice
		}
		if err := s.d.ReadI2C(s.Index, addr, probeReg, &probe); err != nil {
			lg.Debugf("read from 0x%02X failed: %s", addr, err)
		}
		if Found(raw, probe) {
			fmt.Fprintf(s.out, "I2C device found at address 0x%02X 0x%02X\n", raw, addr)
			n++
		}
	}
	lg.Debugf("found %d devices", n)
	return n
}

func (s *Scanner) closeBridge() {
	if err := s.d.Close(s.Index); err != nil {
		lg.Debugf("close failed: %s", err)
	}
	s.state = Closed
}

// EffectiveAddress converts raw probe value into 7 bit address.
func EffectiveAddress(raw int) byte {
	return byte(raw >> 1)
}

// Found classifies probe result for raw address.
func Found(raw int, probe byte) bool {
	return probe != ch341.NoDevice && raw%2 == 0
}
