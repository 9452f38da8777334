package report

import (
	"cleanops/bizerror"
	"cleanops/domain/state"
	"cleanops/session"
	"errors"

	"github.com/fundwit/go-commons/types"
)

type BulkTransition struct {
	IDs    []types.ID `json:"ids" validate:"required"`
	To     string     `json:"to" validate:"required"`
	Reason string     `json:"reason"`
}

type BulkSelection struct {
	IDs []types.ID `json:"ids" validate:"required"`
}

type NgEntry struct {
	ID      types.ID `json:"id"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
}

// BulkResult always accounts for every input id exactly once: either in
// OkIDs or in Ng. Successes are never rolled back by later failures.
type BulkResult struct {
	OkIDs []types.ID `json:"okIds"`
	Ng    []NgEntry  `json:"ng"`
}

// BulkTransition applies one target state to each id independently, with
// partial-success accounting.
func (m *ReportManager) BulkTransition(b *BulkTransition, s *session.Session) (*BulkResult, error) {
	if !s.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	to, found := state.ReportStateMachine.FindState(b.To)
	if !found {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("unknown target state '" + b.To + "'")}
	}

	result := &BulkResult{OkIDs: []types.ID{}, Ng: []NgEntry{}}
	for _, id := range b.IDs {
		_, err := m.applyTransition(id, to, b.Reason, 0, state.ActorAdmin, s)
		if err != nil {
			result.Ng = append(result.Ng, ngEntry(id, err))
			continue
		}
		result.OkIDs = append(result.OkIDs, id)
	}
	return result, nil
}

// BulkArchive moves approved or rejected records to archived. Archiving is
// the only way out of approved; the regular transition table never offers
// it.
func (m *ReportManager) BulkArchive(b *BulkSelection, s *session.Session) (*BulkResult, error) {
	if !s.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}

	result := &BulkResult{OkIDs: []types.ID{}, Ng: []NgEntry{}}
	for _, id := range b.IDs {
		if err := m.archiveOne(id, s); err != nil {
			result.Ng = append(result.Ng, ngEntry(id, err))
			continue
		}
		result.OkIDs = append(result.OkIDs, id)
	}
	return result, nil
}

func (m *ReportManager) archiveOne(id types.ID, s *session.Session) error {
	current, err := m.loadOwned(id, s)
	if err != nil {
		return err
	}
	if !state.IsArchivable(current.State) {
		if state.IsLocked(current.State) && current.State != state.Approved {
			return stateConflict(bizerror.ConflictStateLocked, 0, current)
		}
		return stateConflict(bizerror.ConflictInvalidTransition, 0, current)
	}

	now := m.nowFunc()
	next := *current
	next.History = AppendStateEntry(current.History, now, s.Identity.Subject, current.State, state.Archived, "")
	next.State = state.Archived
	next.Version = current.Version + 1
	next.UpdateTime = now
	next.ActiveKey = nil

	if err := m.store.ConditionalPut(&next, current.Version); err != nil {
		return m.classifyPutError(id, 0, err)
	}
	return nil
}

func ngEntry(id types.ID, err error) NgEntry {
	var conflict *bizerror.ConflictError
	if errors.As(err, &conflict) {
		return NgEntry{ID: id, Code: "conflict." + conflict.Reason, Message: conflict.Error()}
	}
	if errors.Is(err, bizerror.ErrNotFound) {
		return NgEntry{ID: id, Code: "not_found", Message: "record not found"}
	}
	if errors.Is(err, bizerror.ErrUnavailable) {
		return NgEntry{ID: id, Code: "unavailable", Message: "record store unavailable"}
	}
	return NgEntry{ID: id, Code: "internal", Message: err.Error()}
}
