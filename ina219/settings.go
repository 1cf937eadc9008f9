package ina219

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultAddr = 0x40

type busRange struct {
	brng  byte
	volts float64
}

type pga struct {
	pg   byte
	gain float64
}

var busVoltageRanges = map[string]busRange{
	"BUS_VOLTAGE_RANGE_16V": {0, 16},
	"BUS_VOLTAGE_RANGE_32V": {1, 32},
}

var gains = map[string]pga{
	"GAIN_1_40MV":  {0, 1},
	"GAIN_2_80MV":  {1, 2},
	"GAIN_4_160MV": {2, 4},
	"GAIN_8_320MV": {3, 8},
}

// Resolution and averaging of bus ADC (BADC field).
var busADCs = map[string]byte{
	"BUS_VOLTAGE_ADC_RES_9BIT":             0b0000,
	"BUS_VOLTAGE_ADC_RES_10BIT":            0b0001,
	"BUS_VOLTAGE_ADC_RES_11BIT":            0b0010,
	"BUS_VOLTAGE_ADC_RES_12BIT":            0b0011,
	"BUS_VOLTAGE_ADC_RES_12BIT_2S_1060US":  0b1001,
	"BUS_VOLTAGE_ADC_RES_12BIT_4S_2130US":  0b1010,
	"BUS_VOLTAGE_ADC_RES_12BIT_8S_4260US":  0b1011,
	"BUS_VOLTAGE_ADC_RES_12BIT_16S_8510US": 0b1100,
	"BUS_VOLTAGE_ADC_RES_12BIT_32S_17MS":   0b1101,
	"BUS_VOLTAGE_ADC_RES_12BIT_64S_34MS":   0b1110,
	"BUS_VOLTAGE_ADC_RES_12BIT_128S_69MS":  0b1111,
}

// Resolution and averaging of shunt ADC (SADC field).
var shuntADCs = map[string]byte{
	"SHUNT_ADC_RES_9BIT_1S_84US":     0b0000,
	"SHUNT_ADC_RES_10BIT_1S_148US":   0b0001,
	"SHUNT_ADC_RES_11BIT_1S_276US":   0b0010,
	"SHUNT_ADC_RES_12BIT_1S_532US":   0b0011,
	"SHUNT_ADC_RES_12BIT_2S_1060US":  0b1001,
	"SHUNT_ADC_RES_12BIT_4S_2130US":  0b1010,
	"SHUNT_ADC_RES_12BIT_8S_4260US":  0b1011,
	"SHUNT_ADC_RES_12BIT_16S_8510US": 0b1100,
	"SHUNT_ADC_RES_12BIT_32S_17MS":   0b1101,
	"SHUNT_ADC_RES_12BIT_64S_34MS":   0b1110,
	"SHUNT_ADC_RES_12BIT_128S_69MS":  0b1111,
}

var modes = map[string]byte{
	"POWER_DOWN":                       0b000,
	"SVOLT_TRIGGERED":                  0b001,
	"BVOLT_TRIGGERED":                  0b010,
	"SANDBVOLT_TRIGGERED":              0b011,
	"ADC_OFF":                          0b100,
	"SHUNT_VOLTAGE_CONTINUOUS":         0b101,
	"BUS_VOLTAGE_CONTINUOUS":           0b110,
	"SHUNT_AND_BUS_VOLTAGE_CONTINUOUS": 0b111,
}

// Settings configure sensor address, shunt and measurement options.
// Options use names from the datasheet derived tables above.
type Settings struct {
	Addr            uint8   `yaml:"address"`
	ShuntOhms       float64 `yaml:"shunt_ohms"`
	BusVoltageRange string  `yaml:"bus_voltage_range"`
	Gain            string  `yaml:"gain"`
	BusADC          string  `yaml:"bus_adc"`
	ShuntADC        string  `yaml:"shunt_adc"`
	Mode            string  `yaml:"mode"`
}

func Default() Settings {
	return Settings{
		Addr:            defaultAddr,
		ShuntOhms:       0.1,
		BusVoltageRange: "BUS_VOLTAGE_RANGE_32V",
		Gain:            "GAIN_1_40MV",
		BusADC:          "BUS_VOLTAGE_ADC_RES_12BIT",
		ShuntADC:        "SHUNT_ADC_RES_12BIT_1S_532US",
		Mode:            "SHUNT_AND_BUS_VOLTAGE_CONTINUOUS",
	}
}

// LoadSettings reads YAML settings file. Keys missing from the file keep
// their default values.
func LoadSettings(path string) (Settings, error) {
	s := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return s, nil
}

func (s Settings) Validate() error {
	// 0x00-0x07 and 0x78-0x7F are reserved by the bus.
	if s.Addr < 0x08 || s.Addr > 0x77 {
		return fmt.Errorf("address 0x%02X is outside of 0x08-0x77", s.Addr)
	}
	if !(s.ShuntOhms > 0) {
		return fmt.Errorf("shunt resistance must be positive, got %g", s.ShuntOhms)
	}
	_, err := s.fields()
	return err
}

type fieldValues struct {
	brng, pg, badc, sadc, mode byte
	volts, gain                float64
}

func (s Settings) fields() (fieldValues, error) {
	var f fieldValues
	br, ok := busVoltageRanges[s.BusVoltageRange]
	if !ok {
		return f, unknown("bus voltage range", s.BusVoltageRange, busVoltageRanges)
	}
	g, ok := gains[s.Gain]
	if !ok {
		return f, unknown("gain", s.Gain, gains)
	}
	if f.badc, ok = busADCs[s.BusADC]; !ok {
		return f, unknown("bus adc", s.BusADC, busADCs)
	}
	if f.sadc, ok = shuntADCs[s.ShuntADC]; !ok {
		return f, unknown("shunt adc", s.ShuntADC, shuntADCs)
	}
	if f.mode, ok = modes[s.Mode]; !ok {
		return f, unknown("mode", s.Mode, modes)
	}
	f.brng, f.volts = br.brng, br.volts
	f.pg, f.gain = g.pg, g.gain
	return f, nil
}

func unknown[V any](what, name string, opts map[string]V) error {
	return fmt.Errorf("unknown %s %q, expected one of %s", what, name, strings.Join(optionNames(opts), ", "))
}

func optionNames[V any](opts map[string]V) []string {
	names := make([]string, 0, len(opts))
	for n := range opts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Options lists all accepted option names per settings key.
func Options() map[string][]string {
	return map[string][]string{
		"bus_voltage_range": optionNames(busVoltageRanges),
		"gain":              optionNames(gains),
		"bus_adc":           optionNames(busADCs),
		"shunt_adc":         optionNames(shuntADCs),
		"mode":              optionNames(modes),
	}
}

// Calibration is derived from shunt value and gain.
type Calibration struct {
	MaxVolts   float64
	MaxAmps    float64
	CurrentLSB float64
	PowerLSB   float64
	// Value of calibration register.
	Value uint16
}

func (s Settings) Calibrate() (Calibration, error) {
	if err := s.Validate(); err != nil {
		return Calibration{}, err
	}
	f, _ := s.fields()
	vshuntMax := 0.04 * f.gain
	maxAmps := vshuntMax / s.ShuntOhms
	lsb, ok := currentLSB(maxAmps/32768, maxAmps/4096)
	if !ok {
		return Calibration{}, fmt.Errorf("no round current LSB for max current %gA", maxAmps)
	}
	cal := math.Trunc(0.04096 / (lsb * s.ShuntOhms))
	if cal > math.MaxUint16 {
		return Calibration{}, fmt.Errorf("calibration value %g out of range", cal)
	}
	return Calibration{
		MaxVolts:   f.volts,
		MaxAmps:    maxAmps,
		CurrentLSB: lsb,
		PowerLSB:   20 * lsb,
		Value:      uint16(cal),
	}, nil
}

// currentLSB picks the first LSB in (min, max) on a 1e-7 grid (finer when
// the range is narrow) whose grid index is a multiple of 100 but not of
// 200, 3 or 7.
func currentLSB(min, max float64) (float64, bool) {
	eps := math.Min(1e-7, (max-min)/100)
	inv := 1 / eps
	for c := int64((min + eps) * inv); float64(c)/inv < max; c++ {
		if c%100 == 0 && c%200 != 0 && c%3 != 0 && c%7 != 0 {
			return float64(c) / inv, true
		}
	}
	return 0, false
}
