// Package elfpatch overwrites the content of a named section in an existing
// ELF file.
//
// The BL1 provisioner image is built with a 64-byte .pubkey section holding
// a placeholder. Provisioning replaces it with the X || Y coordinates of the
// customer public key before the image is flashed:
//
//	km, _ := keymaterial.Extract("key.pem")
//	err := elfpatch.PatchSection("bl1_provision.elf", elfpatch.PubKeySection, km.PublicKey())
//
// The section is located with debug/elf and its size checked before the
// file is opened for writing, so rejected patches never modify the file.
//
// The default in-place write is not atomic. Set Patcher.Atomic to write a
// patched copy next to the original and rename it over the target instead.
package elfpatch
