// Package sheets reads work tracking spreadsheets: rows pair etext source
// files with the Wikisource pages they were uploaded to, stored as cell
// hyperlinks rather than cell text.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"wikiutils/pkg/config"
)

// LinkPair is one spreadsheet row worth of links: the etext source file and
// the Wikisource page it belongs to.
type LinkPair struct {
	TextFileURL   string `json:"text_file_url"`
	WikisourceURL string `json:"wikisource_url"`
}

// Service reads link pairs from a Google spreadsheet.
type Service struct {
	api           *sheetsapi.Service
	spreadsheetID string
	readRange     string
	logger        *slog.Logger
}

// New creates a read-only client from service account credentials.
func New(ctx context.Context, cfg *config.SheetsConfig, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("sheets credentials file not configured")
	}
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID not configured")
	}

	api, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Service{
		api:           api,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     cfg.ReadRange,
		logger:        logger,
	}, nil
}

// FetchLinkPairs reads the configured range with grid data so cell
// hyperlinks are available, and extracts all link pairs.
func (s *Service) FetchLinkPairs(ctx context.Context) ([]LinkPair, error) {
	call := s.api.Spreadsheets.Get(s.spreadsheetID).IncludeGridData(true).Context(ctx)
	if s.readRange != "" {
		call = call.Ranges(s.readRange)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spreadsheet %s: %w", s.spreadsheetID, err)
	}

	pairs := ExtractLinkPairs(resp)
	s.logger.Info("fetched spreadsheet links", "spreadsheet", s.spreadsheetID, "pairs", len(pairs))
	return pairs, nil
}

// ExtractLinkPairs walks the grid data of a spreadsheet response. The first
// columns of each row hold etext file links and the last column holds the
// Wikisource link; rows without both hyperlinks are skipped.
func ExtractLinkPairs(sheet *sheetsapi.Spreadsheet) []LinkPair {
	var pairs []LinkPair
	for _, sh := range sheet.Sheets {
		for _, grid := range sh.Data {
			for _, row := range grid.RowData {
				if len(row.Values) < 2 {
					continue
				}
				last := row.Values[len(row.Values)-1]
				if last == nil || last.Hyperlink == "" {
					continue
				}
				for _, cell := range row.Values[:len(row.Values)-1] {
					if cell == nil || cell.Hyperlink == "" {
						continue
					}
					pairs = append(pairs, LinkPair{
						TextFileURL:   cell.Hyperlink,
						WikisourceURL: last.Hyperlink,
					})
				}
			}
		}
	}
	return pairs
}

// TitleFromURL extracts the page title from a Wikisource URL, undoing the
// percent-encoding and underscore convention of wiki links. Returns "" for
// URLs that do not point at a wiki page.
func TitleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	path := u.Path
	const prefix = "/wiki/"
	idx := strings.Index(path, prefix)
	if idx < 0 {
		return ""
	}

	title, err := url.PathUnescape(path[idx+len(prefix):])
	if err != nil {
		title = path[idx+len(prefix):]
	}
	title = strings.ReplaceAll(title, "_", " ")
	return strings.TrimSpace(title)
}
