// Bl1-keytool prepares key material and images for MAX32657 secure boot.
//
// It works on files only and never talks to a device:
//
//   - extract the raw key pair from a PEM EC private key into a hex file
//   - patch the public key into the BL1 provisioner's .pubkey section
//   - sign application images and verify signed images
//   - show what a key file or provisioner ELF currently contains
//
// Flashing is done by bl1-provision. See 'bl1-keytool --help'.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/bl1prov/internal/logging"
	"github.com/muurk/bl1prov/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bl1-keytool",
	Short: "MAX32657 secure boot key and image tool",
	Long: `Prepare keys and images for MAX32657 secure boot.

The secure boot ROM checks application images against an ECDSA P-256
public key burned into OTP by the BL1 provisioner. This tool extracts
that key from your PEM private key, patches it into the provisioner ELF
and signs application images with the matching private key.

Set BL1PROV_LOG_LEVEL=debug for diagnostic logs.`,
	Version:       version.Version,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent unless BL1PROV_LOG_LEVEL is set
		return logging.InitializeFromEnv()
	},
	Example: `  # Generate a key and extract the hex layout
  openssl ecparam -name prime256v1 -genkey -noout -out key.pem
  bl1-keytool extract -c key.pem -o key.txt

  # Put the public key into the provisioner
  bl1-keytool patch-elf -c key.pem -e bl1_provision.elf

  # Sign an application image
  bl1-keytool sign --input_file app.bin --sign_key_file key.pem --img_output_file app.signed.bin`,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bl1-keytool %s\n%s\n", version.Full(), version.Platform())
	},
}

// errUsage is returned after usage help has been printed; main exits 1
// without repeating it.
var errUsage = errors.New("usage error")

func usageError(cmd *cobra.Command, msg string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Usage error!")
	if msg != "" {
		fmt.Fprintln(out, msg)
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, cmd.UsageString())
	return errUsage
}
