package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/search"
)

const (
	DefaultBaseURL = "https://openlibrary.org"
	userAgent      = "cover-indexer/1.0"
)

// bibkeyPrefixes maps identifier types onto the Open Library bibkey namespace
var bibkeyPrefixes = map[domain.IdentifierType]string{
	domain.IdentifierTypeISBN: "ISBN",
}

// Config holds the Open Library client settings
type Config struct {
	BaseURL string
	// RequestsPerSecond caps the request rate; zero disables the limiter
	RequestsPerSecond float64
}

type client struct {
	httpClient adapter.HTTPClient
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a bibliographic search client backed by the Open Library books API
func NewClient(httpClient adapter.HTTPClient, cfg Config) search.Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(float64(time.Second)/cfg.RequestsPerSecond)), 1)
	}

	return &client{
		httpClient: httpClient,
		baseURL:    baseURL,
		limiter:    limiter,
	}
}

// bookDetails matches api/books?jscmd=data
type bookDetails struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	PublishDate string `json:"publish_date"`
	Publishers  []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Cover struct {
		Large string `json:"large"`
	} `json:"cover"`
	NumberOfPages int `json:"number_of_pages"`
}

// Search looks up one identifier through api/books
func (c *client) Search(ctx context.Context, identifier string, identifierType domain.IdentifierType) (*search.Material, error) {
	prefix, ok := bibkeyPrefixes[identifierType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedIdentifierType, identifierType)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", search.ErrUnavailable, err)
	}

	bibkey := prefix + ":" + identifier
	u := fmt.Sprintf("%s/api/books?bibkeys=%s&jscmd=data&format=json", c.baseURL, url.QueryEscape(bibkey))

	body, err := c.httpClient.GetBytes(ctx, u, adapter.WithHeader("User-Agent", userAgent))
	if err != nil {
		switch adapter.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: %v", search.ErrUnauthorized, err)
		case http.StatusNotFound:
			return nil, nil
		default:
			return nil, fmt.Errorf("%w: %v", search.ErrUnavailable, err)
		}
	}

	var records map[string]json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", search.ErrUnavailable, err)
	}

	raw, ok := records[bibkey]
	if !ok {
		logger.DebugCtx(ctx, "No Open Library record", zap.String("bibkey", bibkey))
		return nil, nil
	}

	var details bookDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, fmt.Errorf("%w: failed to decode record: %v", search.ErrUnavailable, err)
	}

	material := &search.Material{
		Identifier:     identifier,
		IdentifierType: identifierType,
		Title:          details.Title,
		Subtitle:       details.Subtitle,
		PublishDate:    details.PublishDate,
		Pages:          details.NumberOfPages,
		CoverURL:       details.Cover.Large,
		Raw:            raw,
	}
	for _, a := range details.Authors {
		material.Authors = append(material.Authors, a.Name)
	}
	for _, p := range details.Publishers {
		material.Publishers = append(material.Publishers, p.Name)
	}

	return material, nil
}
