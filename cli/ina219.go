package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/aliher1911/ch341scan/ch341"
	i2cdev "github.com/aliher1911/ch341scan/i2c"
	"github.com/aliher1911/ch341scan/ina219"

	"github.com/spf13/cobra"
)

var (
	flagConfig      string
	flagInterval    time.Duration
	flagSamples     int
	flagListOptions bool
)

var ina219Cmd = &cobra.Command{
	Use:          "ina219",
	Short:        "Print voltage, current and power measured by an INA219 sensor",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runINA219,
}

func runINA219(cmd *cobra.Command, args []string) error {
	if flagListOptions {
		listOptions(cmd.OutOrStdout())
		return nil
	}
	s := ina219.Default()
	if flagConfig != "" {
		var err error
		if s, err = ina219.LoadSettings(flagConfig); err != nil {
			return err
		}
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return monitor(ctx, cmd.OutOrStdout(), newDriver(flagBus), s)
}

func init() {
	ina219Cmd.Flags().StringVarP(&flagConfig, "config", "c", "", "Sensor settings YAML file")
	ina219Cmd.Flags().DurationVar(&flagInterval, "interval", 10*time.Millisecond, "Sampling interval")
	ina219Cmd.Flags().IntVarP(&flagSamples, "samples", "n", 0, "Number of samples (default: until interrupted)")
	ina219Cmd.Flags().BoolVar(&flagListOptions, "list-options", false, "List accepted settings values")
	rootCmd.AddCommand(ina219Cmd)
}

func monitor(ctx context.Context, out io.Writer, d ch341.Driver, s ina219.Settings) error {
	if err := d.Open(flagIndex); err != nil {
		return fmt.Errorf("no communication with CH341 device: %w", err)
	}
	defer d.Close(flagIndex)

	sensor, err := ina219.New(d, i2cdev.Conf{Index: flagIndex}, s)
	if err != nil {
		return err
	}
	if err := sensor.Start(); err != nil {
		return err
	}
	cal := sensor.Calibration()
	for i := 0; flagSamples == 0 || i < flagSamples; i++ {
		if i > 0 {
			select {
			case <-time.After(flagInterval):
			case <-ctx.Done():
				lg.Debugf("monitor stopped after %d samples", i)
				return nil
			}
		}
		r, err := sensor.Read()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "bus=%3.2f V (max %3.2f V) current=%3.2f A (max %3.2f A) power=%3.2f W\n",
			r.BusVoltage, cal.MaxVolts, r.Current, cal.MaxAmps, r.Power)
	}
	return nil
}

func listOptions(out io.Writer) {
	opts := ina219.Options()
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s: %s\n", k, strings.Join(opts[k], ", "))
	}
}
