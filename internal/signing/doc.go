// Package signing signs application images for the MAX32657 secure boot
// ROM.
//
// A signed image is the unsigned binary followed by a 64-byte ECDSA P-256
// signature over its SHA-256 digest, encoded as r || s with each half
// left-padded to 32 bytes:
//
//	+------------------+---------+---------+
//	| image (N bytes)  | r (32)  | s (32)  |
//	+------------------+---------+---------+
//
// The signing key is the same SEC1 PEM key whose public half is patched
// into the BL1 provisioner.
package signing
