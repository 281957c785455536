// Package target holds the catalog of supported devices and the per-user
// profile.
//
// The catalog is embedded YAML describing, per device, how to reach it
// with the J-Link Commander and where the provisioner expects the public
// key. The profile lives in the user configuration directory
// (GetConfigDir) and can name a default target, the commander path and a
// timeout. Command-line flags win over the profile, which wins over the
// catalog.
package target
