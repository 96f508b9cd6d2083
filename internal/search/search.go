package search

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bibcovers/cover-indexer/internal/domain"
)

var (
	// ErrUnauthorized is returned when the search service rejects the credentials
	ErrUnauthorized = errors.New("search unauthorized")

	// ErrUnavailable is returned for transport failures and server errors
	ErrUnavailable = errors.New("search unavailable")
)

// Material is the bibliographic record found for an identifier
type Material struct {
	Identifier     string                `json:"identifier"`
	IdentifierType domain.IdentifierType `json:"identifierType"`
	Title          string                `json:"title"`
	Subtitle       string                `json:"subtitle,omitempty"`
	Authors        []string              `json:"authors,omitempty"`
	Publishers     []string              `json:"publishers,omitempty"`
	PublishDate    string                `json:"publishDate,omitempty"`
	Pages          int                   `json:"pages,omitempty"`
	CoverURL       string                `json:"coverUrl,omitempty"`
	// Raw is the service response for the record, stored as-is
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Client queries the bibliographic search service
//
//go:generate mockgen -source=search.go -destination=../mocks/search.go -package=mocks -mock_names=Client=MockSearchClient
type Client interface {
	// Search looks up one identifier. It returns (nil, nil) when nothing matches,
	// domain.ErrUnsupportedIdentifierType when the type cannot be searched,
	// and ErrUnauthorized or ErrUnavailable for service failures.
	Search(ctx context.Context, identifier string, identifierType domain.IdentifierType) (*Material, error)
}
