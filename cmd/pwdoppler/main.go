// Command pwdoppler simulates a pulsed-wave Doppler acquisition of a spline
// scatterer phantom and renders its Doppler spectrogram.
//
// Usage:
//
//	pwdoppler scan [flags] <scatterer_file>
//	pwdoppler phantom [flags] <out_file>
//	pwdoppler algorithms
//
// Examples:
//
//	pwdoppler phantom carotid.h5
//	pwdoppler scan --store-audio carotid.h5
//	pwdoppler scan --config run.yaml --prf 8000 --out-dir out carotid.h5
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-doppler/internal/logging"
)

var (
	// Global flags
	verbose    bool
	jsonLogs   bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pwdoppler",
	Short: "Pulsed-wave Doppler simulation demo",
	Long: `pwdoppler fires a repeated beam through a moving spline scatterer phantom,
extracts the slow-time signal at one depth and turns it into a Doppler
spectrogram, optionally with audio.

Settings are layered: built-in defaults, then --config (YAML), then
PWDOPPLER_* environment variables, then explicitly set flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.Options{Verbose: verbose, JSON: jsonLogs})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Log JSON instead of console text")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newPhantomCmd())
	rootCmd.AddCommand(algorithmsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
