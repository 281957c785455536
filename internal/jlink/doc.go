// Package jlink runs SEGGER J-Link Commander scripts against the target
// over a debug probe.
//
// Operations are expressed as commander scripts written as Go templates.
// The Executor renders a script, writes it to a temporary file and runs
//
//	JLinkExe -device MAX32657 -if swd -speed 2000 -autoconnect 1 -CommanderScript <file>
//
// as a blocking subprocess with a timeout. Commands depend on the Runner
// interface rather than the Executor so the probe can be stubbed in tests:
//
//	executor := jlink.NewExecutor(jlink.DefaultConfig(), logger)
//	result, err := executor.Run(ctx, jlink.NewProvisionScript("bl1_provision.elf"))
//
// Available scripts:
//
//   - LoadAndExecScript: load an image and start it
//   - ProvisionScript: load and start the BL1 provisioner
//   - FileScript: run an existing commander script file as-is
//
// The commander output is returned for display but not parsed; only the
// process exit status decides success.
package jlink
