package simd

import (
	"fmt"
	"os"
	"strings"
)

// OverrideEnv names the environment variable that forces a kernel family
// (reference or word).
const OverrideEnv = "RABITQ_SIMD"

// Kernels names a family of packed inner-product kernels.
type Kernels uint8

const (
	// WordParallel decodes eight lanes per 64-bit word. It needs no CPU
	// extension and is the default everywhere.
	WordParallel Kernels = iota
	// Reference decodes one lane at a time through internal/bitlane.
	Reference
)

// String returns the string representation of a Kernels value.
func (k Kernels) String() string {
	switch k {
	case WordParallel:
		return "word"
	case Reference:
		return "reference"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseKernels accepts "word" (also "swar", "word-parallel") and
// "reference" (also "generic").
func ParseKernels(s string) (Kernels, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "word", "swar", "word-parallel":
		return WordParallel, true
	case "reference", "generic":
		return Reference, true
	default:
		return WordParallel, false
	}
}

// Features reports CPU vector extensions. The kernels do not depend on
// them; they are surfaced for diagnostics and benchmarks.
type Features struct {
	ASIMD    bool
	SVE2     bool
	AVX2     bool
	FMA      bool
	AVX512F  bool
	AVX512BW bool
}

// String lists the present features, or "none".
func (f Features) String() string {
	var names []string
	for _, feat := range []struct {
		name string
		ok   bool
	}{
		{"asimd", f.ASIMD}, {"sve2", f.SVE2}, {"avx2", f.AVX2},
		{"fma", f.FMA}, {"avx512f", f.AVX512F}, {"avx512bw", f.AVX512BW},
	} {
		if feat.ok {
			names = append(names, feat.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

var (
	cpuFeatures   Features
	activeKernels Kernels
	overridden    bool
)

func init() {
	cpuFeatures = detectFeatures()
	initKernels()
}

// initKernels applies OverrideEnv and installs the chosen kernel table.
func initKernels() {
	activeKernels, overridden = chooseKernels(os.Getenv(OverrideEnv))
	installKernels(activeKernels)
}

// chooseKernels returns the family named by override, or WordParallel when
// override is empty or unknown.
func chooseKernels(override string) (Kernels, bool) {
	if override == "" {
		return WordParallel, false
	}
	k, ok := ParseKernels(override)
	return k, ok
}

// ActiveKernels returns the installed kernel family.
func ActiveKernels() Kernels {
	return activeKernels
}

// IsOverridden reports whether OverrideEnv selected the kernel family.
func IsOverridden() bool {
	return overridden
}

// CPUFeatures returns the detected vector extensions.
func CPUFeatures() Features {
	return cpuFeatures
}
