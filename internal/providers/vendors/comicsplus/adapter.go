package comicsplus

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/providers/vendors"
	"github.com/bibcovers/cover-indexer/internal/store"
)

const (
	NAME = "comicsplus"

	defaultPageSize = 100
	// maxPages stops a feed that never reports its last page
	maxPages = 10000
)

// Page is one page of the Comics Plus title listing
type Page struct {
	Titles []struct {
		ISBN     string `json:"isbn"`
		CoverURL string `json:"cover_url"`
	} `json:"titles"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}

// Adapter pages through the Comics Plus REST listing
type Adapter struct {
	httpClient adapter.HTTPClient
	config     vendors.Config
	pageSize   int
}

// NewAdapter creates the Comics Plus adapter
func NewAdapter(httpClient adapter.HTTPClient, cfg vendors.Config) *Adapter {
	return &Adapter{httpClient: httpClient, config: cfg, pageSize: defaultPageSize}
}

func (a *Adapter) ID() int64 { return vendors.ComicsPlusID }

func (a *Adapter) Name() string { return NAME }

func (a *Adapter) Vendor() store.EnsureVendorInput {
	return vendors.VendorInput(vendors.ComicsPlusID, NAME, a.config)
}

func (a *Adapter) Load(ctx context.Context, emit vendors.EmitFunc) error {
	titles, skipped := 0, 0

	for page := 1; page <= maxPages; page++ {
		u, err := a.pageURL(page)
		if err != nil {
			return err
		}

		var p Page
		if err := a.httpClient.Get(ctx, u, &p, adapter.WithBasicAuth(a.config.User, a.config.Password)); err != nil {
			return fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		for _, title := range p.Titles {
			titles++
			isbn := domain.NormalizeIdentifier(domain.IdentifierTypeISBN, title.ISBN)
			if title.CoverURL == "" || !domain.ValidIdentifier(domain.IdentifierTypeISBN, isbn) {
				skipped++
				continue
			}

			err := emit(ctx, vendors.Entry{
				IdentifierType: domain.IdentifierTypeISBN,
				Identifier:     isbn,
				URL:            title.CoverURL,
			})
			if err != nil {
				return err
			}
		}

		if len(p.Titles) == 0 || page >= p.TotalPages {
			break
		}
	}

	logger.InfoCtx(ctx, "Listing read",
		zap.String("vendor", NAME),
		zap.Int("titles", titles),
		zap.Int("skipped", skipped))

	return nil
}

func (a *Adapter) pageURL(page int) (string, error) {
	u, err := url.Parse(a.config.DataServerURI)
	if err != nil {
		return "", fmt.Errorf("invalid data server uri: %w", err)
	}

	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(a.pageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
