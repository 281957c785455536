package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/bl1prov/internal/elfpatch"
	"github.com/muurk/bl1prov/internal/jlink"
	"github.com/muurk/bl1prov/internal/keymaterial"
	"github.com/muurk/bl1prov/internal/logging"
	"github.com/muurk/bl1prov/internal/target"
	"github.com/muurk/bl1prov/internal/ui"
	"github.com/muurk/bl1prov/internal/urls"
)

// Persistent flags
var (
	jlinkPath   string
	deviceName  string
	speedKHz    int
	timeoutFlag string
	targetName  string
	configPath  string
	verbose     bool
)

// Resolved in setup before any command runs
var (
	activeProfile *target.Profile
	activeTarget  *target.Target
	jlinkConfig   jlink.Config
	overrides     target.Overrides
)

// newRunner creates the J-Link runner. Tests replace it with a stub.
var newRunner = func(config jlink.Config) jlink.Runner {
	return jlink.NewExecutor(config, logging.GetLogger())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&jlinkPath, "jlink-path", "", "Path to the J-Link Commander (default JLinkExe, or JLink on Windows)")
	rootCmd.PersistentFlags().StringVar(&deviceName, "device", "", "J-Link device name (default from target catalog)")
	rootCmd.PersistentFlags().IntVar(&speedKHz, "speed", 0, "SWD speed in kHz (default from target catalog)")
	rootCmd.PersistentFlags().StringVar(&timeoutFlag, "timeout", "", "J-Link Commander timeout (e.g., 30s, 2m); default 2m")
	rootCmd.PersistentFlags().StringVar(&targetName, "target", "", "Target device from the built-in catalog (default max32657)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/bl1prov/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show J-Link Commander output")

	rootCmd.AddCommand(enableSecureBootCmd)
	rootCmd.AddCommand(loadAndExecCmd)
	rootCmd.AddCommand(verifySetupCmd)
}

// setup initialises logging and resolves the target and J-Link settings
// from flags, the user profile and the catalog.
func setup(cmd *cobra.Command, args []string) error {
	// Silent unless BL1PROV_LOG_LEVEL is set
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}

	var timeout time.Duration
	if timeoutFlag != "" {
		var err error
		if timeout, err = time.ParseDuration(timeoutFlag); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		if timeout <= 0 {
			return fmt.Errorf("invalid timeout value: %s must be positive", timeoutFlag)
		}
	}

	profile, err := target.LoadProfile(configPath)
	if err != nil {
		return err
	}

	catalog, err := target.LoadCatalog()
	if err != nil {
		return err
	}

	overrides = target.Overrides{
		Target:    targetName,
		JLinkPath: jlinkPath,
		Device:    deviceName,
		Speed:     speedKHz,
		Timeout:   timeout,
	}

	t, err := target.Resolve(catalog, profile, overrides)
	if err != nil {
		return err
	}

	activeProfile = profile
	activeTarget = t
	jlinkConfig = t.JLinkConfig(profile, overrides)
	return nil
}

// connectionParams are the header parameters shared by all device commands.
func connectionParams(extra map[string]string) map[string]string {
	params := map[string]string{
		"Device":    jlinkConfig.Device,
		"Interface": fmt.Sprintf("%s @ %d kHz", jlinkConfig.Interface, jlinkConfig.Speed),
	}
	for k, v := range extra {
		params[k] = v
	}
	return params
}

// commanderOutput extracts whatever output a failed run produced.
func commanderOutput(err error) string {
	var execErr *jlink.ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Output + execErr.Stderr
	}
	return ""
}

var jlinkTroubleshooting = []string{
	"Check the J-Link probe is connected and the target is powered",
	"Try: bl1-provision verify-setup",
	"Run with --verbose for full J-Link output",
	"Commander reference: " + urls.JLinkCommander,
}

// scriptOrDefault loads a user commander script when path is set.
func scriptOrDefault(path string, fallback jlink.Script) (jlink.Script, error) {
	if path == "" {
		return fallback, nil
	}
	return jlink.LoadFileScript(path)
}

var (
	sbCert   string
	sbELF    string
	sbScript string
	sbYes    bool
	sbAtomic bool
)

// enableSecureBootCmd implements the 'enable-secureboot' command
var enableSecureBootCmd = &cobra.Command{
	Use:   "enable-secureboot",
	Short: "Burn the public key into OTP and enable secure boot",
	Long: `Enable secure boot on the connected device.

This command will:
  1. Extract the public key from the PEM private key (--cert)
  2. Patch it into the .pubkey section of the BL1 provisioner ELF
  3. Read the section back to verify the patch
  4. Run the provisioner on the device via the J-Link Commander

The provisioner writes the key into OTP and turns off the debug
interface. After that the device cannot be reprogrammed, so write
your final images first.

You are asked to confirm with Y or YES unless --yes is given.`,
	Example: `  bl1-provision enable-secureboot -c key.pem
  bl1-provision enable-secureboot -c key.pem --elf build/bl1_provision.elf
  bl1-provision enable-secureboot -c key.pem --script JLinkScript`,
	RunE: runEnableSecureBoot,
}

func init() {
	enableSecureBootCmd.Flags().StringVarP(&sbCert, "cert", "c", "", "Certificate FILE (PEM EC PRIVATE KEY)")
	enableSecureBootCmd.Flags().StringVar(&sbELF, "elf", "", "BL1 provisioner ELF (default bl1_provision.elf)")
	enableSecureBootCmd.Flags().StringVar(&sbScript, "script", "", "Run this J-Link Commander script instead of the built-in one")
	enableSecureBootCmd.Flags().BoolVarP(&sbYes, "yes", "y", false, "Do not ask for confirmation")
	enableSecureBootCmd.Flags().BoolVar(&sbAtomic, "atomic", false, "Patch a temporary copy of the ELF and rename it into place")
}

func runEnableSecureBoot(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if sbCert == "" {
		return usageError(cmd, "please specify certificate file.")
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	ctx := cmd.Context()

	elfPath := sbELF
	if elfPath == "" {
		elfPath = activeTarget.Provisioner.ELF
	}
	section := activeTarget.Provisioner.Section

	script, err := scriptOrDefault(sbScript, jlink.NewProvisionScript(elfPath))
	if err != nil {
		p.PrintFailure("Enable secure boot failed", err, nil)
		return err
	}

	if !sbYes {
		ok, err := ui.ConfirmSecureBoot(p, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if !ok {
			p.Println("Operation aborted.")
			return nil
		}
	}

	runner := ui.NewOperationRunner(p, ui.RunnerConfig{
		Title:   "Enable Secure Boot",
		Command: "bl1-provision enable-secureboot",
		Params: connectionParams(map[string]string{
			"Certificate": sbCert,
			"Provisioner": elfPath,
		}),
		Steps: []string{
			"Extract public key",
			"Patch " + section + " section",
			"Verify " + section + " section",
			"Run BL1 provisioner",
		},
		Troubleshooting: jlinkTroubleshooting,
		Verbose:         verbose,
	})

	err = runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) (map[string]string, error) {
		onStep(1, ui.StepRunning, "")
		km, err := keymaterial.Extract(sbCert)
		if err != nil {
			onStep(1, ui.StepFailed, "")
			return nil, err
		}
		pub := km.PublicKey()
		if err := activeTarget.CheckPublicKey(pub); err != nil {
			onStep(1, ui.StepFailed, "")
			return nil, err
		}
		onStep(1, ui.StepComplete, fmt.Sprintf("%d bytes", len(pub)))

		onStep(2, ui.StepRunning, "")
		patcher := elfpatch.NewPatcher(logging.GetLogger())
		patcher.Atomic = sbAtomic
		if err := patcher.Patch(elfPath, section, pub); err != nil {
			onStep(2, ui.StepFailed, "")
			return nil, err
		}
		onStep(2, ui.StepComplete, "")
		p.Printf("%s section updated\n", section)

		onStep(3, ui.StepRunning, "")
		got, err := elfpatch.ReadSection(elfPath, section)
		if err != nil {
			onStep(3, ui.StepFailed, "")
			return nil, err
		}
		if !bytes.Equal(got, pub) {
			onStep(3, ui.StepFailed, "")
			return nil, fmt.Errorf("read back of %s in %s does not match the key", section, elfPath)
		}
		onStep(3, ui.StepComplete, "")

		onStep(4, ui.StepRunning, "")
		result, err := newRunner(jlinkConfig).Run(ctx, script)
		if err != nil {
			runner.SetCommanderOutput(commanderOutput(err))
			onStep(4, ui.StepFailed, "")
			return nil, err
		}
		runner.SetCommanderOutput(result.Output)
		onStep(4, ui.StepComplete, result.Duration.Round(time.Millisecond).String())

		return map[string]string{
			"Public key": hex.EncodeToString(pub[:8]) + "...",
			"Script":     script.Name(),
		}, nil
	})
	if err != nil {
		return err
	}

	p.Println("bl1 provision done.")
	return nil
}

var (
	loadImage  string
	loadScript string
)

// loadAndExecCmd implements the 'load-and-exec' command
var loadAndExecCmd = &cobra.Command{
	Use:   "load-and-exec",
	Short: "Load an image into the device and start it",
	Long: `Reset and halt the device, load an image, then start it.

Use this for images that report over the serial port, such as the device
info dump, or to run an application before provisioning.`,
	Example: `  bl1-provision load-and-exec --image build/dump_device_info.elf
  bl1-provision load-and-exec --script JLinkScript`,
	RunE: runLoadAndExec,
}

func init() {
	loadAndExecCmd.Flags().StringVar(&loadImage, "image", "", "Image to load (ELF, HEX or BIN)")
	loadAndExecCmd.Flags().StringVar(&loadScript, "script", "", "Run this J-Link Commander script instead of the built-in one")
}

func runLoadAndExec(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if (loadImage == "") == (loadScript == "") {
		return usageError(cmd, "exactly one of --image or --script is required")
	}

	p := ui.NewPrinter(cmd.OutOrStdout())

	script, err := scriptOrDefault(loadScript, jlink.NewLoadAndExecScript(loadImage))
	if err != nil {
		p.PrintFailure("Load failed", err, nil)
		return err
	}

	source := loadImage
	if source == "" {
		source = loadScript
	}
	p.PrintHeader("Load and Execute", "bl1-provision load-and-exec", connectionParams(map[string]string{
		"Image": source,
	}))
	p.PrintSeparator()
	p.PrintPleaseWait("Running J-Link Commander", "up to "+jlinkConfig.Timeout.String())

	config := jlinkConfig
	if verbose {
		config.Output = p.Writer()
	}
	if _, err := newRunner(config).Run(cmd.Context(), script); err != nil {
		p.PrintFailure("Load failed", err, jlinkTroubleshooting)
		if !verbose {
			p.PrintCommanderOutput(commanderOutput(err))
		}
		return err
	}

	p.Newline()
	p.Println("Image loaded, check the PC comport")
	return nil
}

var verifyELF string

// verifySetupCmd implements the 'verify-setup' command
var verifySetupCmd = &cobra.Command{
	Use:   "verify-setup",
	Short: "Check the J-Link Commander and provisioning files",
	Long: `Check that the J-Link Commander can be found and report its version.
With --elf, also check that the provisioner image exists and has a
patchable .pubkey section.`,
	RunE: runVerifySetup,
}

func init() {
	verifySetupCmd.Flags().StringVar(&verifyELF, "elf", "", "Also check this provisioner ELF")
}

func runVerifySetup(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Verify Setup", "bl1-provision verify-setup", connectionParams(map[string]string{
		"Target":     activeTarget.Name,
		"Executable": jlinkConfig.Executable,
	}))

	var images []string
	if verifyELF != "" {
		images = append(images, verifyELF)
	}

	result := jlink.CheckPrerequisites(cmd.Context(), jlinkConfig, images...)
	p.Print(jlink.FormatPrerequisiteReport(result))

	if verifyELF != "" {
		if _, err := elfpatch.FindSection(verifyELF, activeTarget.Provisioner.Section); err != nil {
			p.PrintFailure("Provisioner check failed", err, []string{
				"Rebuild the BL1 provisioner with a " + activeTarget.Provisioner.Section + " section",
				"Secure boot guide: " + urls.MAX32657,
			})
			return err
		}
	}

	if !result.AllAvailable {
		return errors.New("prerequisites missing")
	}
	return nil
}
