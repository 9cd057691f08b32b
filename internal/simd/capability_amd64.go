//go:build amd64

package simd

import "golang.org/x/sys/cpu"

func detectFeatures() Features {
	return Features{
		AVX2:     cpu.X86.HasAVX2,
		FMA:      cpu.X86.HasFMA,
		AVX512F:  cpu.X86.HasAVX512F,
		AVX512BW: cpu.X86.HasAVX512BW,
	}
}
