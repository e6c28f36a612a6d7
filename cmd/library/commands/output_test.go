package commands

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feildrixliemdra/library-admin/internal/constants"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

func TestRenderPager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		current  int
		total    int
		expected string
	}{
		{"no pages", 1, 0, ""},
		{"single page", 1, 1, "[1]\n"},
		{"all pages fit", 3, 5, "1 2 [3] 4 5\n"},
		{"start", 1, 20, "[1] 2 ... 20\n"},
		{"middle", 10, 20, "1 ... 9 [10] 11 ... 20\n"},
		{"end", 20, 20, "1 ... 19 [20]\n"},
		{"near start", 3, 20, "1 2 [3] 4 ... 20\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			renderPager(&buf, tt.current, tt.total)
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestFormatTime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, constants.NotAvailable, formatTime(nil))
	assert.Equal(t, constants.NotAvailable, formatTime(&time.Time{}))

	ts := time.Date(2025, 2, 3, 4, 5, 0, 0, time.Local)
	assert.Equal(t, "2025-02-03 04:05", formatTime(&ts))
}

func TestValueOr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "value", valueOr("value", "fallback"))
	assert.Equal(t, "fallback", valueOr("", "fallback"))
}

func TestWriteOutput(t *testing.T) {
	book := &library.Book{ID: "b1", Title: "Dune", Category: "science-fiction"}

	tests := []struct {
		format   string
		contains []string
	}{
		{constants.FormatJSON, []string{`"id": "b1"`, `"title": "Dune"`}},
		{constants.FormatYAML, []string{"id: b1", "title: Dune"}},
		{constants.FormatTable, []string{"Dune", "Science Fiction"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			setupViper(t, map[string]interface{}{"output": tt.format})

			var buf bytes.Buffer

			err := writeOutput(&buf, book, func(w io.Writer) error {
				return renderBookDetail(w, book)
			})
			require.NoError(t, err)

			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestOutputFormat_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("output", "xml")

	_, err := outputFormat()
	require.ErrorIs(t, err, constants.ErrInvalidOutputFormat)

	err = writeOutput(io.Discard, nil, func(io.Writer) error { return nil })
	require.ErrorIs(t, err, constants.ErrInvalidOutputFormat)
}
