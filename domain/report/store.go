package report

import (
	"cleanops/domain/state"
	"errors"

	"github.com/fundwit/go-commons/types"
)

var (
	// ErrAlreadyExists is returned by Create when the key is taken; the
	// first writer wins.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrVersionConflict is returned by ConditionalPut when the stored
	// version no longer matches the expected one.
	ErrVersionConflict = errors.New("version precondition failed")
)

// StoreQuery narrows a scan. Zero fields are unbounded. Scans hit a single
// worker partition when WorkerID is set.
type StoreQuery struct {
	WorkerID   string
	States     []state.State
	DateFrom   string // inclusive ISO dates
	DateTo     string
	TemplateID string
}

// Store is the record store adapter: a remote keyed store with conditional
// writes. Results of Find are unordered and may be stale; Get reflects the
// latest committed version. Reachability failures surface as
// bizerror.ErrUnavailable, never as a conflict.
type Store interface {
	Get(id types.ID) (*WorkReport, bool, error)

	// Create persists a record that must not exist yet (version 1).
	Create(r *WorkReport) error

	// ConditionalPut replaces the stored record only while its version
	// still equals expectedVersion. The record carries the new version.
	ConditionalPut(r *WorkReport, expectedVersion int) error

	Find(q StoreQuery) ([]WorkReport, error)
}
