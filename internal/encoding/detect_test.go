package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docledger/docledger/internal/encoding"
)

func TestNormalizeUTF8_Passthrough(t *testing.T) {
	input := "Date;Reference;Amount\n2026-01-15;INV-000042;1 250,00 €\n"

	r, err := encoding.NormalizeUTF8(bytes.NewReader([]byte(input)))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestNormalizeUTF8_Latin1(t *testing.T) {
	// ISO-8859-1 bytes for "Référence;Montant\n": é = 0xE9.
	input := []byte{
		'R', 0xE9, 'f', 0xE9, 'r', 'e', 'n', 'c', 'e', ';',
		'M', 'o', 'n', 't', 'a', 'n', 't', '\n',
	}

	r, err := encoding.NormalizeUTF8(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Référence;Montant\n", string(got))
}

func TestNormalizeUTF8_StripsBOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Date;Amount\n")...)

	r, err := encoding.NormalizeUTF8(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Date;Amount\n", string(got))
}

func TestNormalizeUTF8_UTF16LE(t *testing.T) {
	content := "Date\n"
	input := []byte{0xFF, 0xFE}

	for _, r := range content {
		input = append(input, byte(r), 0x00)
	}

	r, err := encoding.NormalizeUTF8(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}
