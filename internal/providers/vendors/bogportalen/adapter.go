package bogportalen

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/providers/vendors"
	"github.com/bibcovers/cover-indexer/internal/store"
)

const NAME = "bogportalen"

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// Adapter reads the Bogportalen cover archive. The archive is only listed:
// each image file named after its ISBN maps to the same name on the image server.
type Adapter struct {
	httpClient adapter.HTTPClient
	config     vendors.Config
}

// NewAdapter creates the Bogportalen adapter
func NewAdapter(httpClient adapter.HTTPClient, cfg vendors.Config) *Adapter {
	return &Adapter{httpClient: httpClient, config: cfg}
}

func (a *Adapter) ID() int64 { return vendors.BogportalenID }

func (a *Adapter) Name() string { return NAME }

func (a *Adapter) Vendor() store.EnsureVendorInput {
	return vendors.VendorInput(vendors.BogportalenID, NAME, a.config)
}

func (a *Adapter) Load(ctx context.Context, emit vendors.EmitFunc) error {
	data, err := a.httpClient.GetBytes(ctx, a.config.DataServerURI, adapter.WithBasicAuth(a.config.User, a.config.Password))
	if err != nil {
		return fmt.Errorf("failed to download archive: %w", err)
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}

	skipped := 0
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}

		name := path.Base(f.Name)
		ext := strings.ToLower(path.Ext(name))
		if _, ok := imageExtensions[ext]; !ok {
			skipped++
			continue
		}

		isbn := domain.NormalizeIdentifier(domain.IdentifierTypeISBN, strings.TrimSuffix(name, path.Ext(name)))
		if !domain.ValidIdentifier(domain.IdentifierTypeISBN, isbn) {
			skipped++
			continue
		}

		err := emit(ctx, vendors.Entry{
			IdentifierType: domain.IdentifierTypeISBN,
			Identifier:     isbn,
			URL:            vendors.ImageURL(a.config.ImageServerURI, name),
		})
		if err != nil {
			return err
		}
	}

	logger.InfoCtx(ctx, "Archive listed",
		zap.String("vendor", NAME),
		zap.Int("files", len(archive.File)),
		zap.Int("skipped", skipped))

	return nil
}
