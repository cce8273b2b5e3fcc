package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("row-source-mask-run "), 200)

	for _, alg := range []Algorithm{None, LZ4, Zstd, S2, Snappy, Gzip} {
		t.Run(string(alg), func(t *testing.T) {
			c, err := NewCompressor(alg)
			require.NoError(t, err)
			assert.Equal(t, alg, c.Algorithm())

			compressed, err := c.Compress(payload)
			require.NoError(t, err)

			out, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, out)

			if alg != None {
				assert.Less(t, len(compressed), len(payload), "repetitive payload should shrink")
			}
		})
	}
}

func TestUnknownAlgorithm(t *testing.T) {
	_, err := NewCompressor("brotli")
	assert.Error(t, err)
}

func TestDecompressCorrupt(t *testing.T) {
	for _, alg := range []Algorithm{Zstd, S2, Snappy, Gzip} {
		c, err := NewCompressor(alg)
		require.NoError(t, err)
		_, err = c.Decompress([]byte("definitely not a frame"))
		assert.Error(t, err, "algorithm %s", alg)
	}
}
