package sheet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/allanpk716/docx_filler/internal/domain"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantRow int
		wantCol int
	}{
		{"single letter", "G21", 20, 6},
		{"double letter", "AA5", 4, 26},
		{"first cell", "A1", 0, 0},
		{"lowercase", "g21", 20, 6},
		{"mixed case", "aB3", 2, 27},
		{"last single letter", "Z9", 8, 25},
		{"long row", "C1048576", 1048575, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddress(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRow, addr.RowIndex())
			assert.Equal(t, tt.wantCol, addr.ColumnIndex())
		})
	}
}

func TestParseAddress_Malformed(t *testing.T) {
	inputs := []string{"", "A", "21", "5A", "A0", "A-1", "A1B", "Ä1", "G 21"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseAddress(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedAddress)
		})
	}
}

func TestColumnNumber_MatchesExcelize(t *testing.T) {
	for _, name := range []string{"A", "Z", "AA", "AZ", "BA", "ZZ", "AAA", "XFD"} {
		want, err := excelize.ColumnNameToNumber(name)
		require.NoError(t, err)

		got, err := ColumnNumber(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestCellAddress_String(t *testing.T) {
	for _, text := range []string{"A1", "G21", "AA5", "ZZ10", "AAA3"} {
		addr, err := ParseAddress(text)
		require.NoError(t, err)
		assert.Equal(t, text, addr.String())
	}
}

type stubSource struct {
	values map[[2]int]string
	err    error
	sheet  string
}

func (s *stubSource) GetValue(sheetName string, row, col int) (string, error) {
	s.sheet = sheetName
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.values[[2]int{row, col}]
	if !ok {
		return "", domain.ErrCellOutOfRange
	}
	return v, nil
}

func TestResolver_Resolve(t *testing.T) {
	src := &stubSource{values: map[[2]int]string{{20, 6}: "80.0"}}
	r := NewResolver(src)

	v, err := r.Resolve("Scores", "G21")
	require.NoError(t, err)
	assert.Equal(t, "80.0", v)
	assert.Equal(t, "Scores", src.sheet)

	_, err = r.Resolve("Scores", "H1")
	assert.ErrorIs(t, err, domain.ErrCellOutOfRange)

	_, err = r.Resolve("Scores", "1G")
	assert.ErrorIs(t, err, domain.ErrMalformedAddress)
}

func TestResolver_PropagatesSourceError(t *testing.T) {
	r := NewResolver(&stubSource{err: domain.ErrAddressNotFound})

	_, err := r.Resolve("Missing", "A1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAddressNotFound))
}
