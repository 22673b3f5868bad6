package cpu

// Feature is a single bit decoded out of a CPUID leaf.
type Feature uint32

// EDX feature bits from CPUID leaf 1.
const (
	FeatureFPU  Feature = 1 << 0
	FeatureVME  Feature = 1 << 1
	FeaturePSE  Feature = 1 << 3
	FeatureTSC  Feature = 1 << 4
	FeatureMSR  Feature = 1 << 5
	FeaturePAE  Feature = 1 << 6
	FeatureCX8  Feature = 1 << 8
	FeatureAPIC Feature = 1 << 9
	FeatureMTRR Feature = 1 << 12
	FeaturePGE  Feature = 1 << 13
	FeaturePAT  Feature = 1 << 16
	FeatureSSE  Feature = 1 << 25
	FeatureSSE2 Feature = 1 << 26
)

// Extended (leaf 0x80000001) EDX feature bits.
const (
	FeatureExtNX       Feature = 1 << 20
	FeatureExtLongMode Feature = 1 << 29
)

// Vendor identifies the CPU manufacturer via the 12-character string
// returned by CPUID leaf 0.
type Vendor string

const (
	VendorIntel   Vendor = "GenuineIntel"
	VendorAMD     Vendor = "AuthenticAMD"
	VendorUnknown Vendor = ""
)

// Info holds the result of a single boot-time CPU probe.
type Info struct {
	Vendor Vendor
	Family uint8
	Model  uint8
	Step   uint8

	edxFeatures    Feature
	ecxFeatures    Feature
	extEdxFeatures Feature

	maxLeaf    uint32
	maxExtLeaf uint32
}

// features is populated by Probe and queried by HasFeature/HasExtFeature.
var features Info

// idFn is mocked by tests; in production it is the raw CPUID
// instruction implemented in cpu_386.s.
var idFn = id

// Probe executes CPUID and populates the package-level feature table.
// It must run once, early in boot, before any code queries HasFeature.
func Probe() Info {
	features = Info{}
	maxLeaf, b0, c0, d0 := idFn(0, 0)
	features.maxLeaf = maxLeaf
	features.Vendor = decodeVendor(b0, d0, c0)

	if maxLeaf >= 1 {
		a1, _, c1, d1 := idFn(1, 0)
		features.Family, features.Model, features.Step = decodeFamilyModel(a1)
		features.edxFeatures = Feature(d1)
		features.ecxFeatures = Feature(c1)
	}

	maxExt, _, _, _ := idFn(0x80000000, 0)
	features.maxExtLeaf = maxExt
	if maxExt >= 0x80000001 {
		_, _, _, extD := idFn(0x80000001, 0)
		features.extEdxFeatures = Feature(extD)
	}

	return features
}

// Features returns the result of the most recent Probe call.
func Features() Info {
	return features
}

func decodeVendor(ebx, edx, ecx uint32) Vendor {
	var raw [12]byte
	putLE32(raw[0:4], ebx)
	putLE32(raw[4:8], edx)
	putLE32(raw[8:12], ecx)
	switch Vendor(raw[:]) {
	case VendorIntel:
		return VendorIntel
	case VendorAMD:
		return VendorAMD
	default:
		return VendorUnknown
	}
}

func putLE32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}

// decodeFamilyModel applies the standard CPUID family/model combination
// rule: for family 0x6 or 0xF, the extended family/model nibbles are
// folded into the base values.
func decodeFamilyModel(eax uint32) (family, model, step uint8) {
	baseFamily := uint8((eax >> 8) & 0xf)
	baseModel := uint8((eax >> 4) & 0xf)
	extFamily := uint8((eax >> 20) & 0xff)
	extModel := uint8((eax >> 16) & 0xf)
	step = uint8(eax & 0xf)

	family = baseFamily
	if baseFamily == 0x6 || baseFamily == 0xf {
		model = (extModel << 4) | baseModel
	} else {
		model = baseModel
	}
	if baseFamily == 0xf {
		family = baseFamily + extFamily
	}
	return family, model, step
}

// HasFeature reports whether a CPUID leaf-1 EDX/ECX feature bit is set.
func (info Info) HasFeature(f Feature) bool {
	return info.edxFeatures&f != 0 || info.ecxFeatures&f != 0
}

// HasExtFeature reports whether an extended (0x80000001) EDX feature
// bit is set.
func (info Info) HasExtFeature(f Feature) bool {
	return info.extEdxFeatures&f != 0
}

// SupportsPAE reports whether the CPU can run the 3-level PAE paging
// format.
func (info Info) SupportsPAE() bool { return info.HasFeature(FeaturePAE) }

// SupportsNX reports whether the CPU honours the no-execute page bit.
// NX is only usable when both the CPU advertises it and PAE is active,
// since the legacy 32-bit PTE format has no room for the bit.
func (info Info) SupportsNX() bool { return info.HasExtFeature(FeatureExtNX) }

// SupportsPGE reports whether the CPU supports global pages.
func (info Info) SupportsPGE() bool { return info.HasFeature(FeaturePGE) }

// SupportsMSR reports whether RDMSR/WRMSR are legal on this CPU.
func (info Info) SupportsMSR() bool { return info.HasFeature(FeatureMSR) }

// IsIntel returns true if the probed vendor string is Intel's.
func (info Info) IsIntel() bool { return info.Vendor == VendorIntel }
