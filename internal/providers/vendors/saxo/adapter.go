package saxo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/providers/vendors"
	"github.com/bibcovers/cover-indexer/internal/store"
)

const NAME = "saxo"

// ErrMissingISBNColumn is returned when the spreadsheet header has no ISBN column
var ErrMissingISBNColumn = errors.New("spreadsheet has no isbn column")

// isbnHeaders are the header names the ISBN column is known under
var isbnHeaders = []string{"isbn", "isbn13", "ean"}

// Adapter reads the Saxo spreadsheet. Only the first sheet is used; covers are
// served from the image server as <isbn>.jpg.
type Adapter struct {
	httpClient adapter.HTTPClient
	config     vendors.Config
}

// NewAdapter creates the Saxo adapter
func NewAdapter(httpClient adapter.HTTPClient, cfg vendors.Config) *Adapter {
	return &Adapter{httpClient: httpClient, config: cfg}
}

func (a *Adapter) ID() int64 { return vendors.SaxoID }

func (a *Adapter) Name() string { return NAME }

func (a *Adapter) Vendor() store.EnsureVendorInput {
	return vendors.VendorInput(vendors.SaxoID, NAME, a.config)
}

func (a *Adapter) Load(ctx context.Context, emit vendors.EmitFunc) error {
	body, err := a.httpClient.GetStream(ctx, a.config.DataServerURI, adapter.WithBasicAuth(a.config.User, a.config.Password))
	if err != nil {
		return fmt.Errorf("failed to download spreadsheet: %w", err)
	}
	defer func() {
		if cerr := body.Close(); cerr != nil {
			logger.WarnCtx(ctx, "Failed to close spreadsheet body", zap.Error(cerr))
		}
	}()

	f, err := excelize.OpenReader(body)
	if err != nil {
		return fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.WarnCtx(ctx, "Failed to close spreadsheet", zap.Error(cerr))
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logger.WarnCtx(ctx, "Failed to close sheet rows", zap.Error(cerr))
		}
	}()

	column := -1
	read, skipped := 0, 0
	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read row %d: %w", read+1, err)
		}
		read++

		if column < 0 {
			column = isbnColumn(cells)
			if column < 0 {
				return ErrMissingISBNColumn
			}
			continue
		}

		if column >= len(cells) {
			skipped++
			continue
		}
		isbn := domain.NormalizeIdentifier(domain.IdentifierTypeISBN, cells[column])
		if !domain.ValidIdentifier(domain.IdentifierTypeISBN, isbn) {
			skipped++
			continue
		}

		err = emit(ctx, vendors.Entry{
			IdentifierType: domain.IdentifierTypeISBN,
			Identifier:     isbn,
			URL:            vendors.ImageURL(a.config.ImageServerURI, isbn+".jpg"),
		})
		if err != nil {
			return err
		}
	}
	if err := rows.Error(); err != nil {
		return fmt.Errorf("failed to iterate rows: %w", err)
	}

	logger.InfoCtx(ctx, "Spreadsheet read",
		zap.String("vendor", NAME),
		zap.Int("rows", read),
		zap.Int("skipped", skipped))

	return nil
}

func isbnColumn(header []string) int {
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for _, known := range isbnHeaders {
			if name == known {
				return i
			}
		}
	}
	return -1
}
