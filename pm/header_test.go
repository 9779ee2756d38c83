package pm

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestHeaderLength(t *testing.T) {
	require.Equal(t, headerLength, binary.Size(header{}))
}

func TestHeaderRoundTrip(t *testing.T) {
	h := header{
		Magic:               magic,
		Version:             version,
		RootOffset:          rootOffset,
		RootLength:          42,
		DataOffset:          16 << 10,
		AddressedTiles:      21,
		Clustered:           true,
		InternalCompression: CompressionZstd,
		MinZoom:             0,
		MaxZoom:             2,
	}
	got, err := decodeHeader(h.encode())
	require.NoError(t, err)
	if diff := cmp.Diff(h, got); diff != "" {
		t.Errorf("decodeHeader(encode()) mismatch (-want+got):\n%v", diff)
	}
}

func TestHeaderErrors(t *testing.T) {
	if _, err := decodeHeader([]byte("foobar")); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("short header error = %v, want ErrInvalidHeader", err)
	}

	foreign := header{Magic: [7]byte{'P', 'K'}, Version: version}
	if _, err := decodeHeader(foreign.encode()); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("foreign magic error = %v, want ErrInvalidHeader", err)
	}

	old := header{Magic: magic, Version: 2}
	if _, err := decodeHeader(old.encode()); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("version 2 error = %v, want ErrInvalidVersion", err)
	}
}

func TestCompression(t *testing.T) {
	data := []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			compressed, err := compress(data, c)
			require.NoError(t, err)
			got, err := decompress(compressed, c)
			require.NoError(t, err)
			if !cmp.Equal(data, got) {
				t.Errorf("decompress(compress(data)) = %q", got)
			}
		})
	}

	if _, err := compress(data, CompressionBrotli); !errors.Is(err, ErrUnsupportedCompression) {
		t.Errorf("compress(brotli) error = %v, want ErrUnsupportedCompression", err)
	}
}
