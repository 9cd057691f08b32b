package bitlane

// BlockSize returns the number of dimensions covered by one packed block,
// or 0 if bits is not in [1, 8].
func BlockSize(bits int) int {
	switch bits {
	case 1, 4:
		return 16
	case 2, 3, 5, 6, 7:
		return 64
	case 8:
		return 1
	default:
		return 0
	}
}

// BlockBytes returns the packed size of a block holding n dimensions,
// n <= BlockSize(bits). Full blocks occupy exactly BlockSize(bits)*bits/8 bytes;
// a trailing partial block is shortened to the bytes it actually needs.
func BlockBytes(n, bits int) int {
	if n <= 0 {
		return 0
	}
	switch bits {
	case 1:
		return (n + 7) / 8
	case 4:
		if n <= 8 {
			return n
		}
		return 8
	case 8:
		return n
	default:
		return bits * ((n + 7) / 8)
	}
}

// PackBlock packs the codes of one (possibly partial) block into dst.
// Codes must already be < 2^bits.
func PackBlock(dst []byte, codes []uint8, bits int) {
	n := len(codes)
	switch bits {
	case 1:
		for g := 0; g*8 < n; g++ {
			dst[g] = Gather(Load8(codes[g*8 : min(n, g*8+8)]))
		}
	case 4:
		lo := Load8(codes[:min(n, 8)])
		var hi uint64
		if n > 8 {
			hi = Load8(codes[8:n])
		}
		Store8(dst[:BlockBytes(n, 4)], lo|hi<<4)
	case 8:
		copy(dst, codes)
	default:
		stride := (n + 7) / 8
		for g := 0; g < stride; g++ {
			w := Load8(codes[g*8 : min(n, g*8+8)])
			for p := 0; p < bits; p++ {
				dst[p*stride+g] = Gather(w >> p)
			}
		}
	}
}

// UnpackBlock decodes len(dst) codes of one (possibly partial) block from src.
func UnpackBlock(dst []uint8, src []byte, bits int) {
	n := len(dst)
	switch bits {
	case 1:
		for g := 0; g*8 < n; g++ {
			Store8(dst[g*8:min(n, g*8+8)], Spread(src[g]))
		}
	case 4:
		lo, hi := Nibbles(Load8(src[:BlockBytes(n, 4)]))
		Store8(dst[:min(n, 8)], lo)
		if n > 8 {
			Store8(dst[8:n], hi)
		}
	case 8:
		copy(dst, src[:n])
	default:
		stride := (n + 7) / 8
		for g := 0; g < stride; g++ {
			Store8(dst[g*8:min(n, g*8+8)], Planes(src[g:], stride, bits))
		}
	}
}
