// Package provenance is a thin, context-scoped API over the graph engine
// that maps the chain/mark/link provenance model onto nodes and edges in
// the "provenance" dimension: a chain groups marks, a mark documents a
// single annotated location, and marks may link to one another.
package provenance

import (
	"fmt"
	"time"
)

// ChainStatus is a chain's open/closed lifecycle state.
type ChainStatus string

const (
	ChainActive   ChainStatus = "active"
	ChainArchived ChainStatus = "archived"
)

// ParseChainStatus parses a status string, erroring on anything but
// "active" or "archived".
func ParseChainStatus(s string) (ChainStatus, error) {
	switch ChainStatus(s) {
	case ChainActive, ChainArchived:
		return ChainStatus(s), nil
	default:
		return "", fmt.Errorf("provenance: invalid chain status %q", s)
	}
}

// ChainView is the read-facing projection of a chain node.
type ChainView struct {
	ID          string
	Name        string
	Description string
	Status      ChainStatus
	CreatedAt   time.Time
	ModifiedAt  *time.Time
}

// MarkView is the read-facing projection of a mark node.
type MarkView struct {
	ID         string
	ChainID    string
	File       string
	Line       int64
	Column     *int64
	Annotation string
	MarkType   string
	Tags       []string
	CreatedAt  time.Time
	ModifiedAt *time.Time
}
