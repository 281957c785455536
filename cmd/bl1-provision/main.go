// Bl1-provision enables secure boot on a MAX32657 through a SEGGER J-Link.
//
// It patches the public key into the BL1 provisioner image and runs the
// J-Link Commander to flash and start it. The provisioner burns the key
// into OTP and locks the debug port, so this is a one-way operation.
//
// Prerequisites:
//
//   - SEGGER J-Link Software Pack (JLinkExe, or JLink.exe on Windows)
//   - J-Link probe connected to the target's SWD port
//
// See 'bl1-provision --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/muurk/bl1prov/internal/logging"
	"github.com/muurk/bl1prov/internal/version"
)

func main() {
	// Ctrl+C cancels the context, which kills a running J-Link Commander.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bl1-provision",
	Short: "MAX32657 secure boot provisioning over J-Link",
	Long: `Provision MAX32657 secure boot using a SEGGER J-Link probe.

enable-secureboot patches your public key into the BL1 provisioner and
runs it on the device. The provisioner writes the key into OTP and turns
off the debug interface: afterwards the device only boots images signed
with the matching private key and cannot be reprogrammed over SWD.

Prerequisites:
  - SEGGER J-Link Software Pack installed (JLinkExe in PATH)
  - J-Link probe connected to the target's SWD port

Use 'bl1-provision verify-setup' to check prerequisites.
Set BL1PROV_LOG_LEVEL=debug for diagnostic logs.`,
	Version:           version.Version,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	Example: `  # Check the J-Link installation
  bl1-provision verify-setup

  # Load and run an image (no provisioning)
  bl1-provision load-and-exec --image build/app.elf

  # Enable secure boot with your key
  bl1-provision enable-secureboot -c key.pem`,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bl1-provision %s\n%s\n", version.Full(), version.Platform())
	},
}

// errUsage is returned after usage help has been printed; main exits 1
// without repeating it.
var errUsage = errors.New("usage error")

func usageError(cmd *cobra.Command, msg string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Usage error, "+msg)
	fmt.Fprintln(out)
	fmt.Fprint(out, cmd.UsageString())
	return errUsage
}
