// Package cli implements ch341scan commands.
package cli

import (
	"github.com/aliher1911/ch341scan/ch341"
	"github.com/aliher1911/ch341scan/logging"
	"github.com/aliher1911/ch341scan/scanner"

	"github.com/spf13/cobra"
)

var lg = logging.New("cli")

// Packages raised to debug level by --verbose.
var logPackages = []string{"cli", "ch341", "scanner", "ina219", "i2c"}

var (
	flagIndex      int
	flagBus        int
	flagResetProbe bool
	flagVerbose    bool
)

// newDriver is replaced in tests.
var newDriver = ch341.New

var rootCmd = &cobra.Command{
	Use:              "ch341scan",
	Short:            "Scan I2C bus behind a CH341 USB bridge",
	Long:             `ch341scan probes every 7 bit address on the I2C bus of a CH341 USB to I2C bridge and prints addresses that respond.`,
	Args:             cobra.NoArgs,
	PersistentPreRun: setupLogging,
	Run:              runScan,
}

func setupLogging(cmd *cobra.Command, args []string) {
	if flagVerbose {
		logging.Debug(logPackages...)
	}
}

// runScan never fails, scan result doesn't affect exit status.
func runScan(cmd *cobra.Command, args []string) {
	cfg := scanner.Default()
	cfg.Index = flagIndex
	cfg.ResetProbe = flagResetProbe
	n := scanner.New(newDriver(flagBus), cmd.OutOrStdout(), cfg).Run()
	lg.Debugf("scan of bridge %d finished, %d devices", flagIndex, n)
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagIndex, "index", 0, "Bridge index")
	rootCmd.PersistentFlags().IntVar(&flagBus, "bus", -1, "I2C bus number of the bridge (linux only, default: discover)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&flagResetProbe, "reset-probe", false, "Reset probe byte before every read")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
