package cpu

import "testing"

func withMockCPUID(t *testing.T, fn func(leaf, subleaf uint32) (uint32, uint32, uint32, uint32)) {
	t.Helper()
	orig := idFn
	idFn = fn
	t.Cleanup(func() { idFn = orig })
}

func TestProbeDecodesIntelVendor(t *testing.T) {
	withMockCPUID(t, func(leaf, _ uint32) (uint32, uint32, uint32, uint32) {
		switch leaf {
		case 0:
			return 2, 0x756e6547, 0x6c65746e, 0x49656e69 // "GenuineIntel"
		case 1:
			// family=6, model=0xa (base), extModel=0x3 -> model = 0x3a
			eax := uint32(0x000306a9)
			edx := uint32(FeatureFPU | FeaturePAE | FeatureMSR | FeaturePGE)
			return eax, 0, 0, edx
		case 0x80000000:
			return 0x80000001, 0, 0, 0
		case 0x80000001:
			return 0, 0, 0, uint32(FeatureExtNX)
		}
		return 0, 0, 0, 0
	})

	info := Probe()

	if !info.IsIntel() {
		t.Fatalf("expected Intel vendor, got %q", info.Vendor)
	}
	if info.Family != 6 {
		t.Fatalf("expected family 6, got %d", info.Family)
	}
	if info.Model != 0x3a {
		t.Fatalf("expected model 0x3a, got %#x", info.Model)
	}
	if !info.SupportsPAE() || !info.SupportsMSR() || !info.SupportsPGE() {
		t.Fatalf("expected PAE/MSR/PGE support, got %+v", info)
	}
	if !info.SupportsNX() {
		t.Fatalf("expected NX support from extended leaf")
	}
}

func TestProbeHandlesMissingExtendedLeaf(t *testing.T) {
	withMockCPUID(t, func(leaf, _ uint32) (uint32, uint32, uint32, uint32) {
		if leaf == 0x80000000 {
			// reports no extended leaves available
			return 0, 0, 0, 0
		}
		return 0, 0x68747541, 0x444d4163, 0x69746e65 // "AuthenticAMD"
	})

	info := Probe()
	if info.Vendor != VendorAMD {
		t.Fatalf("expected AMD vendor, got %q", info.Vendor)
	}
	if info.SupportsNX() {
		t.Fatalf("did not expect NX support when extended leaf is unavailable")
	}
}
