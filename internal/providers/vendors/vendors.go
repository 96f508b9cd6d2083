package vendors

import (
	"context"
	"errors"
	"strings"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/store"
)

// ErrStop is returned by an EmitFunc to end a load early without failing it
var ErrStop = errors.New("stop loading")

// Vendor ids are stable across environments
const (
	BogportalenID int64 = 1
	SaxoID        int64 = 2
	PublizonID    int64 = 3
	ComicsPlusID  int64 = 4
)

// Entry is one identifier read from a vendor feed
type Entry struct {
	IdentifierType domain.IdentifierType
	Identifier     string
	// URL is the vendor image URL; empty when Deleted is set
	URL string
	// Deleted marks an identifier the vendor withdrew
	Deleted bool
}

// EmitFunc receives entries in feed order
type EmitFunc func(ctx context.Context, entry Entry) error

// Config holds the feed endpoints and credentials of one vendor
type Config struct {
	DataServerURI  string
	ImageServerURI string
	User           string
	Password       string
	Rank           int
}

// Adapter fetches and parses one vendor feed
//
//go:generate mockgen -source=vendors.go -destination=../../mocks/vendor_adapter.go -package=mocks -mock_names=Adapter=MockVendorAdapter
type Adapter interface {
	// ID returns the vendor id
	ID() int64
	// Name returns the vendor name
	Name() string
	// Vendor returns the row seeded for this adapter
	Vendor() store.EnsureVendorInput
	// Load reads the whole feed and calls emit per entry; an emit error ends the load
	Load(ctx context.Context, emit EmitFunc) error
}

// VendorInput builds the seed row for an adapter
func VendorInput(id int64, name string, cfg Config) store.EnsureVendorInput {
	return store.EnsureVendorInput{
		ID:                 id,
		Name:               name,
		Rank:               cfg.Rank,
		ImageServerURI:     optional(cfg.ImageServerURI),
		DataServerURI:      optional(cfg.DataServerURI),
		DataServerUser:     optional(cfg.User),
		DataServerPassword: optional(cfg.Password),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ImageURL joins the image server base and a file name
func ImageURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(name, "/")
}
