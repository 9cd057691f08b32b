package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC32C_KnownValue(t *testing.T) {
	// RFC 3720 check value.
	assert.Equal(t, uint32(0xE3069283), CRC32C([]byte("123456789")))
	assert.Equal(t, uint32(0), CRC32C(nil))
}

func TestCRC32C_StreamingMatchesOneShot(t *testing.T) {
	data := []byte("rotator header and payload")
	h := NewCRC32C()
	_, _ = h.Write(data[:7])
	_, _ = h.Write(data[7:])
	assert.Equal(t, CRC32C(data), h.Sum32())
}

func TestTrailerRoundTrip(t *testing.T) {
	blob := AppendTrailer([]byte("payload"))
	require.Len(t, blob, len("payload")+TrailerSize)

	data, err := SplitTrailer(blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	dst := make([]byte, TrailerSize)
	PutTrailer(dst, []byte("payload"))
	assert.Equal(t, blob[len(blob)-TrailerSize:], dst)
}

func TestSplitTrailer_Corrupt(t *testing.T) {
	blob := AppendTrailer([]byte("payload"))
	blob[0] ^= 0x01
	_, err := SplitTrailer(blob)
	require.ErrorIs(t, err, ErrChecksum)

	_, err = SplitTrailer([]byte{1, 2})
	require.ErrorIs(t, err, ErrChecksum)
}
