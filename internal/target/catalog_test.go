package target

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/muurk/bl1prov/internal/elfpatch"
	"github.com/muurk/bl1prov/internal/signing"
)

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	again, _ := LoadCatalog()
	if again != catalog {
		t.Error("LoadCatalog() should return the same instance")
	}

	max, ok := catalog.Get("max32657")
	if !ok {
		t.Fatal("catalog should contain max32657")
	}

	want := &Target{
		Name:        "max32657",
		Description: max.Description,
		JLink:       JLinkSettings{Device: "MAX32657", Interface: "swd", Speed: 2000},
		Provisioner: ProvisionerSettings{ELF: "bl1_provision.elf", Section: ".pubkey", KeySize: 64},
		Signing:     SigningSettings{Algorithm: "ecdsa-p256-sha256", SignatureSize: 64},
	}
	if diff := cmp.Diff(want, max); diff != "" {
		t.Errorf("max32657 mismatch (-want +got):\n%s", diff)
	}

	if _, ok := catalog.Get("nrf52"); ok {
		t.Error("unexpected target nrf52")
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "targets: [\n"},
		{"missing name", "targets:\n  - description: x\n"},
		{"duplicate", "targets:\n  - name: a\n  - name: a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseCatalog([]byte(tt.yaml)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestCatalog_Names(t *testing.T) {
	catalog, err := parseCatalog([]byte("targets:\n  - name: b\n  - name: a\n"))
	if err != nil {
		t.Fatalf("parseCatalog() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, catalog.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestTarget_CheckPublicKey(t *testing.T) {
	target := &Target{Name: "board", Provisioner: ProvisionerSettings{KeySize: 64}}

	tests := []struct {
		name    string
		target  *Target
		size    int
		wantErr string
	}{
		{"exact", target, 64, ""},
		{"short", target, 32, "expects a 64-byte public key, got 32 bytes"},
		{"long", target, 65, "expects a 64-byte public key, got 65 bytes"},
		{"unset", &Target{Name: "bare"}, 32, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.CheckPublicKey(make([]byte, tt.size))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("CheckPublicKey() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("CheckPublicKey() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestTarget_CheckSigning(t *testing.T) {
	target := &Target{Name: "board", Signing: SigningSettings{Algorithm: "ecdsa-p256-sha256", SignatureSize: 64}}

	tests := []struct {
		name      string
		target    *Target
		algorithm string
		size      int
		wantErr   string
	}{
		{"match", target, "ecdsa-p256-sha256", 64, ""},
		{"other algorithm", target, "ed25519", 64, "expects ecdsa-p256-sha256 signatures"},
		{"other size", target, "ecdsa-p256-sha256", 72, "expects a 64-byte signature"},
		{"unset", &Target{Name: "bare"}, "anything", 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.CheckSigning(tt.algorithm, tt.size)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("CheckSigning() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("CheckSigning() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

// The embedded catalog must agree with what the tools actually produce.
func TestLoadCatalog_MatchesTools(t *testing.T) {
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	target, ok := catalog.Get(DefaultTarget)
	if !ok {
		t.Fatalf("catalog has no %s", DefaultTarget)
	}

	if target.Provisioner.KeySize != elfpatch.PubKeySize {
		t.Errorf("key_size = %d, want %d", target.Provisioner.KeySize, elfpatch.PubKeySize)
	}
	if err := target.CheckPublicKey(make([]byte, elfpatch.PubKeySize)); err != nil {
		t.Errorf("CheckPublicKey() error = %v", err)
	}
	if target.Signing.Algorithm == "" || target.Signing.SignatureSize == 0 {
		t.Errorf("signing settings unset: %+v", target.Signing)
	}
	if err := target.CheckSigning(signing.Algorithm, signing.SignatureSize); err != nil {
		t.Errorf("CheckSigning() error = %v", err)
	}
}
