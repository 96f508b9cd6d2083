package publizon

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/providers/vendors"
	"github.com/bibcovers/cover-indexer/internal/store"
)

const NAME = "publizon"

// ONIX code lists
const (
	productIDTypeISBN13  = "15"
	notificationDelete   = "05"
	mediaFileTypeFront   = "04"
	mediaFileLinkTypeURL = "01"
)

// product is the part of an ONIX 2.1 Product record the adapter reads
type product struct {
	NotificationType string `xml:"NotificationType"`
	Identifiers      []struct {
		Type  string `xml:"ProductIDType"`
		Value string `xml:"IDValue"`
	} `xml:"ProductIdentifier"`
	MediaFiles []struct {
		Type     string `xml:"MediaFileTypeCode"`
		LinkType string `xml:"MediaFileLinkTypeCode"`
		Link     string `xml:"MediaFileLink"`
	} `xml:"MediaFile"`
}

func (p *product) isbn() string {
	for _, id := range p.Identifiers {
		if strings.TrimSpace(id.Type) == productIDTypeISBN13 {
			return domain.NormalizeIdentifier(domain.IdentifierTypeISBN, id.Value)
		}
	}
	return ""
}

func (p *product) frontCover() string {
	for _, f := range p.MediaFiles {
		if strings.TrimSpace(f.Type) == mediaFileTypeFront && strings.TrimSpace(f.LinkType) == mediaFileLinkTypeURL {
			return strings.TrimSpace(f.Link)
		}
	}
	return ""
}

// Adapter streams the Publizon ONIX feed one Product element at a time
type Adapter struct {
	httpClient adapter.HTTPClient
	config     vendors.Config
}

// NewAdapter creates the Publizon adapter
func NewAdapter(httpClient adapter.HTTPClient, cfg vendors.Config) *Adapter {
	return &Adapter{httpClient: httpClient, config: cfg}
}

func (a *Adapter) ID() int64 { return vendors.PublizonID }

func (a *Adapter) Name() string { return NAME }

func (a *Adapter) Vendor() store.EnsureVendorInput {
	return vendors.VendorInput(vendors.PublizonID, NAME, a.config)
}

func (a *Adapter) Load(ctx context.Context, emit vendors.EmitFunc) error {
	body, err := a.httpClient.GetStream(ctx, a.config.DataServerURI, adapter.WithBasicAuth(a.config.User, a.config.Password))
	if err != nil {
		return fmt.Errorf("failed to download feed: %w", err)
	}
	defer func() {
		if cerr := body.Close(); cerr != nil {
			logger.WarnCtx(ctx, "Failed to close feed body", zap.Error(cerr))
		}
	}()

	return a.parse(ctx, body, emit)
}

func (a *Adapter) parse(ctx context.Context, r io.Reader, emit vendors.EmitFunc) error {
	decoder := xml.NewDecoder(r)
	products, skipped := 0, 0

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read feed after %d products: %w", products, err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "Product" {
			continue
		}

		var p product
		if err := decoder.DecodeElement(&p, &start); err != nil {
			return fmt.Errorf("failed to decode product %d: %w", products+1, err)
		}
		products++

		isbn := p.isbn()
		if !domain.ValidIdentifier(domain.IdentifierTypeISBN, isbn) {
			skipped++
			continue
		}

		entry := vendors.Entry{IdentifierType: domain.IdentifierTypeISBN, Identifier: isbn}
		switch {
		case strings.TrimSpace(p.NotificationType) == notificationDelete:
			entry.Deleted = true
		case p.frontCover() != "":
			entry.URL = p.frontCover()
		default:
			skipped++
			continue
		}

		if err := emit(ctx, entry); err != nil {
			return err
		}
	}

	logger.InfoCtx(ctx, "Feed parsed",
		zap.String("vendor", NAME),
		zap.Int("products", products),
		zap.Int("skipped", skipped))

	return nil
}
