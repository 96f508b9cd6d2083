package domain

import "errors"

var (
	// ErrInvalidMessage is returned when an envelope is missing required fields
	ErrInvalidMessage = errors.New("invalid process message")

	// ErrUnsupportedIdentifierType is returned for identifier types the pipeline cannot handle
	ErrUnsupportedIdentifierType = errors.New("unsupported identifier type")

	// ErrBatchTooLarge is returned when a reconciliation batch exceeds the batch bound
	ErrBatchTooLarge = errors.New("batch too large")

	// ErrInvalidBatch is returned when a batch contains empty identifiers or image URLs
	ErrInvalidBatch = errors.New("invalid batch")

	// ErrVendorNotFound is returned when a vendor id is unknown
	ErrVendorNotFound = errors.New("vendor not found")

	// ErrSourceNotFound is returned when no Source exists for a natural key
	ErrSourceNotFound = errors.New("source not found")

	// ErrMissingImageID is returned when a stage requires an image id that is not set
	ErrMissingImageID = errors.New("missing image id")
)
