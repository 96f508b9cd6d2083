package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// IdentifierType is the kind of bibliographic identifier a cover is matched on
type IdentifierType string

const (
	IdentifierTypeISBN  IdentifierType = "isbn"
	IdentifierTypeISSN  IdentifierType = "issn"
	IdentifierTypeISMN  IdentifierType = "ismn"
	IdentifierTypeFaust IdentifierType = "faust"
	IdentifierTypePID   IdentifierType = "pid"
)

// IsValidIdentifierType checks if an identifier type is known
func IsValidIdentifierType(t IdentifierType) bool {
	switch t {
	case IdentifierTypeISBN, IdentifierTypeISSN, IdentifierTypeISMN, IdentifierTypeFaust, IdentifierTypePID:
		return true
	default:
		return false
	}
}

// Operation is the reconciliation classification carried through the pipeline
type Operation string

const (
	OperationInsert Operation = "INSERT"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// IsValidOperation checks if an operation is one of INSERT, UPDATE or DELETE
func IsValidOperation(op Operation) bool {
	return op == OperationInsert || op == OperationUpdate || op == OperationDelete
}

// Batch is a bounded chunk of vendor data: identifier -> image URL
type Batch map[string]string

// Identifiers returns the batch keys
func (b Batch) Identifiers() []string {
	ids := make([]string, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	return ids
}

// VendorEvent is emitted once per reconciliation classification
type VendorEvent struct {
	Operation      Operation      `json:"operation"`
	IdentifierType IdentifierType `json:"identifierType"`
	Identifiers    []string       `json:"identifiers"`
	VendorID       int64          `json:"vendorId"`
}

// Valid checks that the event can be routed
func (e *VendorEvent) Valid() bool {
	return e != nil &&
		IsValidOperation(e.Operation) &&
		IsValidIdentifierType(e.IdentifierType) &&
		e.VendorID > 0
}

// Messages expands the event into one envelope per identifier
func (e *VendorEvent) Messages(useSearchCache bool) []ProcessMessage {
	msgs := make([]ProcessMessage, 0, len(e.Identifiers))
	for _, id := range e.Identifiers {
		msgs = append(msgs, NewProcessMessage(e.Operation, e.IdentifierType, id, e.VendorID).
			WithSearchCache(useSearchCache))
	}
	return msgs
}

// NoHitItem is an identifier the bibliographic search could not resolve
type NoHitItem struct {
	IdentifierType IdentifierType `json:"identifierType"`
	Identifier     string         `json:"identifier"`
}

// IndexReadyEvent notifies the search index that a cover is ready
type IndexReadyEvent struct {
	Identifier     string          `json:"identifier"`
	IdentifierType IdentifierType  `json:"identifierType"`
	Operation      Operation       `json:"operation"`
	VendorID       int64           `json:"vendorId"`
	ImageID        int64           `json:"imageId"`
	Material       json.RawMessage `json:"material,omitempty"`
}

// NormalizeIdentifier trims the identifier and strips the separators vendors
// put into ISBN/ISSN/ISMN values
func NormalizeIdentifier(t IdentifierType, identifier string) string {
	identifier = strings.TrimSpace(identifier)
	switch t {
	case IdentifierTypeISBN, IdentifierTypeISSN, IdentifierTypeISMN:
		identifier = strings.NewReplacer("-", "", " ", "").Replace(identifier)
		return strings.ToUpper(identifier)
	default:
		return identifier
	}
}

// ValidIdentifier checks the identifier shape for the given type
func ValidIdentifier(t IdentifierType, identifier string) bool {
	if identifier == "" {
		return false
	}

	switch t {
	case IdentifierTypeISBN:
		return (len(identifier) == 10 || len(identifier) == 13) && digitsWithCheck(identifier)
	case IdentifierTypeISSN:
		return len(identifier) == 8 && digitsWithCheck(identifier)
	case IdentifierTypeFaust:
		_, err := strconv.ParseUint(identifier, 10, 64)
		return err == nil
	default:
		return true
	}
}

func digitsWithCheck(s string) bool {
	for i, r := range s {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == 'X' && i == len(s)-1 {
			continue
		}
		return false
	}
	return true
}

// SourceKey is the natural key of a Source row
type SourceKey struct {
	VendorID       int64
	Identifier     string
	IdentifierType IdentifierType
}

func (k SourceKey) String() string {
	return fmt.Sprintf("%d:%s:%s", k.VendorID, k.IdentifierType, k.Identifier)
}
