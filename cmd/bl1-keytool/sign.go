package main

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/bl1prov/internal/keymaterial"
	"github.com/muurk/bl1prov/internal/signing"
	"github.com/muurk/bl1prov/internal/ui"
)

var (
	signInput  string
	signKey    string
	signOutput string

	verifySigned string
	verifyKey    string
)

func init() {
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
}

// signCmd implements the 'sign' command
var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign an application image for secure boot",
	Long: `Sign an application image with ECDSA P-256 over SHA-256.

The output is the input image followed by the 64-byte signature r || s.
The key must be the private half of the public key provisioned into the
device (SEC1 or PKCS#8 PEM).`,
	Example: `  bl1-keytool sign --input_file app.bin --sign_key_file key.pem --img_output_file app.signed.bin`,
	RunE:    runSign,
}

func init() {
	signCmd.Flags().StringVar(&signInput, "input_file", "", "The image to process")
	signCmd.Flags().StringVar(&signKey, "sign_key_file", "", "Signing key file (PEM)")
	signCmd.Flags().StringVar(&signOutput, "img_output_file", "", "Image output file")
}

func runSign(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if signInput == "" || signKey == "" || signOutput == "" {
		return usageError(cmd, "--input_file, --sign_key_file and --img_output_file are required")
	}

	p := ui.NewPrinter(cmd.OutOrStdout())

	if err := checkSigningTarget(); err != nil {
		p.PrintFailure("Signing failed", err, nil)
		return err
	}

	p.Println("Signing:")
	p.Printf("Input File:  %s\n", signInput)
	p.Printf("Certificate: %s\n", signKey)
	p.Printf("Output File: %s\n", signOutput)

	sig, err := signing.SignImage(signInput, signOutput, signKey)
	if err != nil {
		p.PrintFailure("Signing failed", err, []string{
			"The key must be a P-256 private key in PEM format",
			"Check that the input image exists and the output directory is writable",
		})
		return err
	}

	p.Newline()
	p.Println("Generated Signature:")
	p.Println(hex.EncodeToString(sig.Raw))
	p.Newline()
	p.Println("Signature Generation Succeeded")
	return nil
}

// verifyCmd implements the 'verify' command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the signature appended to an image",
	Long: `Check the trailing 64-byte signature of a signed image.

The key can be the PEM private key used for signing or the hex key file
written by 'extract'; only the public half is used.`,
	Example: `  bl1-keytool verify --signed-file app.signed.bin --key key.pem
  bl1-keytool verify --signed-file app.signed.bin --key key.txt`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifySigned, "signed-file", "", "Signed image")
	verifyCmd.Flags().StringVar(&verifyKey, "key", "", "PEM private key or hex key file")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if verifySigned == "" || verifyKey == "" {
		return usageError(cmd, "both --signed-file and --key are required")
	}

	p := ui.NewPrinter(cmd.OutOrStdout())

	if err := checkSigningTarget(); err != nil {
		p.PrintFailure("Verification failed", err, nil)
		return err
	}

	pub, err := loadPublicKey(verifyKey)
	if err != nil {
		p.PrintFailure("Verification failed", err, []string{
			"Pass the PEM private key or the hex key file written by 'extract'",
		})
		return err
	}

	size, err := signing.VerifyImage(verifySigned, pub)
	if err != nil {
		p.PrintFailure("Verification failed", err, []string{
			"Was the image signed with this key?",
			"Was the image modified after signing?",
		})
		return err
	}

	p.PrintSuccess("Signature valid", map[string]string{
		"Image":      verifySigned,
		"Image size": fmt.Sprintf("%d bytes", size),
		"Key":        verifyKey,
	})
	return nil
}

// checkSigningTarget confirms the selected target boots images signed the
// way this tool signs them.
func checkSigningTarget() error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	return t.CheckSigning(signing.Algorithm, signing.SignatureSize)
}

// loadPublicKey reads a PEM private key, or a hex key file when the data
// has no PEM armour.
func loadPublicKey(path string) (*ecdsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if bytes.Contains(data, []byte("-----BEGIN")) {
		key, err := signing.ParseSigningKey(data)
		if err != nil {
			return nil, err
		}
		return &key.PublicKey, nil
	}

	km, err := keymaterial.ParseHexLayout(string(data))
	if err != nil {
		return nil, err
	}
	return signing.PublicKeyFromXY(km.PublicX[:], km.PublicY[:])
}
