package main

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/bl1prov/internal/elfpatch"
	"github.com/muurk/bl1prov/internal/keymaterial"
	"github.com/muurk/bl1prov/internal/ui"
)

var (
	showKeys    string
	showCert    string
	showELF     string
	showSection string
)

func init() {
	rootCmd.AddCommand(showCmd)
}

// showCmd implements the 'show' command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the public key in a key file or provisioner ELF",
	Long: `Print the public key held in a hex key file (--keys), a PEM key (--cert)
and/or the .pubkey section of a provisioner ELF (--elf).

When both a key and an ELF are given, reports whether the ELF has been
patched with that key. The private key is never printed.`,
	Example: `  bl1-keytool show --keys key.txt
  bl1-keytool show --elf bl1_provision.elf
  bl1-keytool show -c key.pem --elf bl1_provision.elf`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showKeys, "keys", "", "Hex key file written by 'extract'")
	showCmd.Flags().StringVarP(&showCert, "cert", "c", "", "PEM file holding the EC PRIVATE KEY")
	showCmd.Flags().StringVar(&showELF, "elf", "", "Provisioner ELF")
	showCmd.Flags().StringVar(&showSection, "section", "", "Section to show (default from target catalog)")
}

func runShow(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if showKeys == "" && showCert == "" && showELF == "" {
		return usageError(cmd, "at least one of --keys, --cert or --elf is required")
	}
	if showKeys != "" && showCert != "" {
		return usageError(cmd, "--keys and --cert are mutually exclusive")
	}

	p := ui.NewPrinter(cmd.OutOrStdout())

	var keyPub []byte
	if showKeys != "" || showCert != "" {
		km, err := loadKeyMaterial(showCert, showKeys, false)
		if err != nil {
			p.PrintFailure("Cannot read key", err, keyTroubleshooting(err))
			return err
		}
		keyPub = km.PublicKey()

		source := showKeys
		if source == "" {
			source = showCert
		}
		p.PrintHeader("Key material", source, map[string]string{
			"Private key": fmt.Sprintf("%d bytes (not shown)", keymaterial.ScalarSize),
			"Public key":  fmt.Sprintf("%d bytes", len(keyPub)),
		})
		p.Printf("Public x: %s\n", hex.EncodeToString(km.PublicX[:]))
		p.Printf("Public y: %s\n", hex.EncodeToString(km.PublicY[:]))
		p.Newline()
	}

	if showELF == "" {
		return nil
	}

	section := showSection
	if section == "" {
		t, err := resolveTarget()
		if err != nil {
			p.PrintFailure("Cannot read ELF", err, nil)
			return err
		}
		section = t.Provisioner.Section
	}

	sec, err := elfpatch.FindSection(showELF, section)
	if err != nil {
		p.PrintFailure("Cannot read ELF", err, patchTroubleshooting(err, showELF, section))
		return err
	}
	data, err := elfpatch.ReadSection(showELF, section)
	if err != nil {
		p.PrintFailure("Cannot read ELF", err, patchTroubleshooting(err, showELF, section))
		return err
	}

	params := map[string]string{
		"Offset": fmt.Sprintf("0x%x", sec.Offset),
		"Size":   fmt.Sprintf("%d bytes", sec.Size),
	}
	if keyPub != nil {
		if bytes.Equal(data, keyPub) {
			params["Matches key"] = "yes"
		} else {
			params["Matches key"] = "NO"
		}
	}
	p.PrintHeader(section+" section", showELF, params)
	p.Printf("Contents: %s\n", describeSection(data))

	return nil
}

// describeSection renders section bytes, calling out an unpatched section.
func describeSection(data []byte) string {
	switch {
	case len(data) == 0:
		return "(empty)"
	case bytes.Count(data, []byte{0xff}) == len(data):
		return "(erased, all 0xff: not patched)"
	case bytes.Count(data, []byte{0x00}) == len(data):
		return "(all zero: not patched)"
	}
	return hex.EncodeToString(data)
}
