package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sheetsapi "google.golang.org/api/sheets/v4"
)

func row(hyperlinks ...string) *sheetsapi.RowData {
	cells := make([]*sheetsapi.CellData, len(hyperlinks))
	for i, h := range hyperlinks {
		cells[i] = &sheetsapi.CellData{Hyperlink: h}
	}
	return &sheetsapi.RowData{Values: cells}
}

func TestExtractLinkPairs(t *testing.T) {
	sheet := &sheetsapi.Spreadsheet{
		Sheets: []*sheetsapi.Sheet{{
			Data: []*sheetsapi.GridData{{
				RowData: []*sheetsapi.RowData{
					row("https://drive.example/file1.txt", "https://wikisource.org/wiki/Work_One"),
					// Two source files pointing at the same target page
					row("https://drive.example/file2a.txt", "https://drive.example/file2b.txt", "https://wikisource.org/wiki/Work_Two"),
					// No target hyperlink
					row("https://drive.example/file3.txt", ""),
					// Header row with no hyperlinks at all
					row("", ""),
				},
			}},
		}},
	}

	pairs := ExtractLinkPairs(sheet)

	require.Len(t, pairs, 3)
	assert.Equal(t, LinkPair{
		TextFileURL:   "https://drive.example/file1.txt",
		WikisourceURL: "https://wikisource.org/wiki/Work_One",
	}, pairs[0])
	assert.Equal(t, "https://drive.example/file2a.txt", pairs[1].TextFileURL)
	assert.Equal(t, "https://drive.example/file2b.txt", pairs[2].TextFileURL)
	assert.Equal(t, "https://wikisource.org/wiki/Work_Two", pairs[2].WikisourceURL)
}

func TestExtractLinkPairsEmpty(t *testing.T) {
	assert.Empty(t, ExtractLinkPairs(&sheetsapi.Spreadsheet{}))
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://mul.wikisource.org/wiki/Heart_Sutra", "Heart Sutra"},
		{"https://mul.wikisource.org/wiki/Page%3ABook.pdf/3", "Page:Book.pdf/3"},
		{"https://mul.wikisource.org/w/index.php?title=X", ""},
		{"not a url ://", ""},
		{"https://mul.wikisource.org/wiki/", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TitleFromURL(tt.in), "TitleFromURL(%q)", tt.in)
	}
}
