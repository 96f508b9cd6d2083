package domain

import "fmt"

// ProcessMessage is the per-identifier envelope passed between pipeline stages.
// It is a value type: stages derive a new copy with the With* helpers instead
// of mutating the one they received.
type ProcessMessage struct {
	Operation      Operation      `json:"operation"`
	IdentifierType IdentifierType `json:"identifierType"`
	Identifier     string         `json:"identifier"`
	VendorID       int64          `json:"vendorId"`
	ImageID        int64          `json:"imageId,omitempty"`
	UseSearchCache bool           `json:"useSearchCache"`
}

// NewProcessMessage creates an envelope without an image id
func NewProcessMessage(op Operation, t IdentifierType, identifier string, vendorID int64) ProcessMessage {
	return ProcessMessage{
		Operation:      op,
		IdentifierType: t,
		Identifier:     identifier,
		VendorID:       vendorID,
	}
}

// WithImageID returns a copy carrying the published image id
func (m ProcessMessage) WithImageID(imageID int64) ProcessMessage {
	m.ImageID = imageID
	return m
}

// WithSearchCache returns a copy with the search cache flag set
func (m ProcessMessage) WithSearchCache(use bool) ProcessMessage {
	m.UseSearchCache = use
	return m
}

// SourceKey returns the natural key of the Source the message refers to
func (m ProcessMessage) SourceKey() SourceKey {
	return SourceKey{
		VendorID:       m.VendorID,
		Identifier:     m.Identifier,
		IdentifierType: m.IdentifierType,
	}
}

// DedupID identifies a stage hop of this message for broker-side deduplication
func (m ProcessMessage) DedupID(stage string) string {
	return fmt.Sprintf("%s:%s:%s", stage, m.Operation, m.SourceKey())
}

// Validate checks the envelope fields every stage relies on
func (m ProcessMessage) Validate() error {
	if !IsValidOperation(m.Operation) {
		return fmt.Errorf("%w: operation %q", ErrInvalidMessage, m.Operation)
	}
	if !IsValidIdentifierType(m.IdentifierType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedIdentifierType, m.IdentifierType)
	}
	if m.Identifier == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidMessage)
	}
	if m.VendorID <= 0 {
		return fmt.Errorf("%w: vendor id %d", ErrInvalidMessage, m.VendorID)
	}
	return nil
}
