// Package keymaterial extracts raw EC key material from a PEM-encoded SEC1
// private key.
//
// The device secure-boot logic consumes the private scalar and the public
// point as plain 32-byte big-endian values. They are sliced out of the DER
// encoding at fixed offsets rather than by walking the ASN.1 structure:
//
//	offset  0  30 77             SEQUENCE
//	offset  2  02 01 01          version
//	offset  5  04 20 <32 bytes>  private scalar      [7, 39)
//	offset 39  a0 0a 06 08 ...   [0] prime256v1
//	offset 51  a1 44 03 42 00 04 [1] public point
//	offset 57  <32 bytes>        public X            [57, 89)
//	offset 89  <32 bytes>        public Y            [89, 121)
//
// This keeps the output bit-exact with existing provisioning pipelines.
// CheckLayout parses the structure with cryptobyte and verifies the offsets
// actually line up, for callers that want to reject keys on other curves or
// with optional fields missing.
//
// The hex layout written by WriteHexLayout is a persisted format read by
// device provisioning tooling; RenderHexLayout must not change.
package keymaterial
