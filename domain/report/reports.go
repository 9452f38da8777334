package report

import (
	"cleanops/bizerror"
	"cleanops/common"
	"cleanops/domain/state"
	"cleanops/session"
	"errors"
	"fmt"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/google/uuid"
	"github.com/sony/sonyflake"
)

type DraftSaving struct {
	LogID   types.ID `json:"logId"`
	Version int      `json:"version"`

	WorkDate string `json:"date" validate:"required"`
	StartAt  string `json:"startAt" validate:"required"`
	EndAt    string `json:"endAt" validate:"required"`
	NextDay  bool   `json:"nextDay"`

	BreakMinutes int `json:"breakMinutes"`

	Category     string `json:"category"`
	Description  string `json:"description"`
	Deliverables string `json:"deliverables"`
	RefType      string `json:"refType"`
	RefID        string `json:"refId"`
	TemplateID   string `json:"templateId"`
	TargetLabel  string `json:"targetLabel"`
}

type WorkerStatePatch struct {
	State   string `json:"state" validate:"required"`
	Version int    `json:"version" validate:"required"`
}

type StateTransition struct {
	To      string `json:"to" validate:"required"`
	Reason  string `json:"reason"`
	Version int    `json:"version"`
}

type ReportManagerTraits interface {
	SaveDraft(d *DraftSaving, s *session.Session) (*WorkReport, error)
	PatchState(id types.ID, p *WorkerStatePatch, s *session.Session) (*WorkReport, error)
	TransitionState(id types.ID, t *StateTransition, s *session.Session) (*WorkReport, error)
	DetailReport(id types.ID, s *session.Session) (*WorkReport, error)

	QueryWorkerReports(q *WorkerReportQuery, s *session.Session) ([]WorkReport, error)
	QueryReviewList(q *ReviewQuery, s *session.Session) (*ReviewPage, error)

	BulkTransition(b *BulkTransition, s *session.Session) (*BulkResult, error)
	BulkArchive(b *BulkSelection, s *session.Session) (*BulkResult, error)

	PayrollMonth(workerId, month, mode string, s *session.Session) (*PayrollView, error)
}

type ReportManager struct {
	store    Store
	idWorker *sonyflake.Sonyflake

	privateTemplates map[string]bool

	nowFunc       func() types.Timestamp
	newShareToken func() string
}

func NewReportManager(store Store, privateTemplateIds []string) *ReportManager {
	private := map[string]bool{}
	for _, id := range privateTemplateIds {
		if id = strings.TrimSpace(id); id != "" {
			private[id] = true
		}
	}
	return &ReportManager{
		store:            store,
		idWorker:         sonyflake.NewSonyflake(sonyflake.Settings{}),
		privateTemplates: private,
		nowFunc:          func() types.Timestamp { return common.CurrentTimestampFunc() },
		newShareToken:    func() string { return uuid.New().String() },
	}
}

// SaveDraft creates or updates a draft for the calling worker. Without a
// logId the record is located by the (worker, date, template) natural key;
// either path ends in a single conditional write.
func (m *ReportManager) SaveDraft(d *DraftSaving, s *session.Session) (*WorkReport, error) {
	if s.Identity.Role != session.RoleWorker {
		return nil, bizerror.ErrForbidden
	}
	workDate, err := ParseWorkDate(d.WorkDate)
	if err != nil {
		return nil, err
	}
	workMinutes, err := DeriveWorkMinutes(d.StartAt, d.EndAt, d.NextDay, d.BreakMinutes)
	if err != nil {
		return nil, err
	}

	if d.LogID != 0 {
		if d.Version == 0 {
			return nil, &bizerror.ErrBadParam{Cause: errors.New("version is required when logId is given")}
		}
		current, err := m.loadOwned(d.LogID, s)
		if err != nil {
			return nil, err
		}
		return m.updateDraft(current, d, workDate, workMinutes, d.Version, s)
	}

	matches, err := m.store.Find(StoreQuery{WorkerID: s.Identity.Subject, DateFrom: workDate, DateTo: workDate, TemplateID: d.TemplateID})
	if err != nil {
		return nil, err
	}
	if match := pickActive(matches); match != nil {
		return m.updateDraft(match, d, workDate, workMinutes, match.Version, s)
	}
	return m.createDraft(d, workDate, workMinutes, s)
}

func (m *ReportManager) createDraft(d *DraftSaving, workDate string, workMinutes int, s *session.Session) (*WorkReport, error) {
	now := m.nowFunc()
	activeKey := naturalKey(s.Identity.Subject, workDate, d.TemplateID)
	r := &WorkReport{
		LogID:    common.NextId(m.idWorker),
		WorkerID: s.Identity.Subject,
		WorkDate: workDate,

		StartAt:      d.StartAt,
		EndAt:        d.EndAt,
		NextDay:      d.NextDay,
		BreakMinutes: d.BreakMinutes,
		WorkMinutes:  workMinutes,

		Category:     d.Category,
		Description:  d.Description,
		Deliverables: d.Deliverables,
		RefType:      d.RefType,
		RefID:        d.RefID,
		TemplateID:   d.TemplateID,
		TargetLabel:  d.TargetLabel,

		State:     state.Draft,
		Version:   1,
		History:   History{},
		ActiveKey: &activeKey,

		CreateTime: now,
		UpdateTime: now,
	}
	if err := m.store.Create(r); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			// lost the first-draft race; report the winner's state
			return nil, m.creationConflict(s.Identity.Subject, workDate, d.TemplateID)
		}
		return nil, err
	}
	return r, nil
}

func (m *ReportManager) updateDraft(current *WorkReport, d *DraftSaving, workDate string, workMinutes int, expectedVersion int, s *session.Session) (*WorkReport, error) {
	if state.IsLocked(current.State) {
		return nil, stateConflict(bizerror.ConflictStateLocked, expectedVersion, current)
	}
	if current.State != state.Draft {
		return nil, stateConflict(bizerror.ConflictInvalidTransition, expectedVersion, current)
	}
	if expectedVersion != current.Version {
		return nil, stateConflict(bizerror.ConflictVersionMismatch, expectedVersion, current)
	}

	now := m.nowFunc()
	next := *current
	next.WorkDate = workDate
	next.StartAt = d.StartAt
	next.EndAt = d.EndAt
	next.NextDay = d.NextDay
	next.BreakMinutes = d.BreakMinutes
	next.WorkMinutes = workMinutes
	next.Category = d.Category
	next.Description = d.Description
	next.Deliverables = d.Deliverables
	next.RefType = d.RefType
	next.RefID = d.RefID
	next.TemplateID = d.TemplateID
	next.TargetLabel = d.TargetLabel
	activeKey := naturalKey(next.WorkerID, workDate, d.TemplateID)
	next.ActiveKey = &activeKey

	next.History = AppendUpdateEntry(current.History, now, s.Identity.Subject, current.State)
	next.Version = current.Version + 1
	next.UpdateTime = now

	if err := m.store.ConditionalPut(&next, expectedVersion); err != nil {
		return nil, m.classifyPutError(current.LogID, expectedVersion, err)
	}
	return &next, nil
}

// PatchState is the worker-side transition: submit a draft, or cancel it.
func (m *ReportManager) PatchState(id types.ID, p *WorkerStatePatch, s *session.Session) (*WorkReport, error) {
	if s.Identity.Role != session.RoleWorker {
		return nil, bizerror.ErrForbidden
	}
	to, found := state.ReportStateMachine.FindState(p.State)
	if !found {
		return nil, bizerror.ErrUnknownState
	}
	return m.applyTransition(id, to, "", p.Version, state.ActorWorker, s)
}

// TransitionState is the admin-side transition. Version 0 means "against
// whatever version the engine reads now"; the write is still conditional.
func (m *ReportManager) TransitionState(id types.ID, t *StateTransition, s *session.Session) (*WorkReport, error) {
	if !s.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	to, found := state.ReportStateMachine.FindState(t.To)
	if !found {
		return nil, bizerror.ErrUnknownState
	}
	return m.applyTransition(id, to, t.Reason, t.Version, state.ActorAdmin, s)
}

func (m *ReportManager) applyTransition(id types.ID, to state.State, reason string, providedVersion int, actor string, s *session.Session) (*WorkReport, error) {
	current, err := m.loadOwned(id, s)
	if err != nil {
		return nil, err
	}

	if state.IsLocked(current.State) {
		return nil, stateConflict(bizerror.ConflictStateLocked, providedVersion, current)
	}
	transitions := state.ReportStateMachine.AvailableTransitions(current.State, to, actor)
	if len(transitions) != 1 {
		return nil, stateConflict(bizerror.ConflictInvalidTransition, providedVersion, current)
	}
	reason = strings.TrimSpace(reason)
	if transitions[0].ReasonRequired && reason == "" {
		return nil, stateConflict(bizerror.ConflictReasonRequired, providedVersion, current)
	}

	expected := current.Version
	if providedVersion != 0 {
		if providedVersion != current.Version {
			return nil, stateConflict(bizerror.ConflictVersionMismatch, providedVersion, current)
		}
		expected = providedVersion
	}

	now := m.nowFunc()
	next := *current
	next.History = AppendStateEntry(current.History, now, s.Identity.Subject, current.State, to, reason)
	next.State = to
	next.Version = current.Version + 1
	next.UpdateTime = now
	if to == state.Submitted && next.ShareToken == "" {
		next.ShareToken = m.newShareToken()
	}
	if to == state.Rejected || state.IsLocked(to) {
		// release the natural key so the worker can restart with a new draft
		next.ActiveKey = nil
	}

	if err := m.store.ConditionalPut(&next, expected); err != nil {
		return nil, m.classifyPutError(id, providedVersion, err)
	}
	return &next, nil
}

func (m *ReportManager) DetailReport(id types.ID, s *session.Session) (*WorkReport, error) {
	current, err := m.loadOwned(id, s)
	if err != nil {
		return nil, err
	}
	return m.Mask(current, s), nil
}

func (m *ReportManager) loadOwned(id types.ID, s *session.Session) (*WorkReport, error) {
	current, found, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, bizerror.ErrNotFound
	}
	if !s.IsAdmin() && !s.Owns(current.WorkerID) {
		return nil, bizerror.ErrForbidden
	}
	return current, nil
}

// classifyPutError turns a failed conditional write into a conflict result
// built from a re-read of the current record. The engine never retries.
func (m *ReportManager) classifyPutError(id types.ID, providedVersion int, err error) error {
	if !errors.Is(err, ErrVersionConflict) && !errors.Is(err, ErrAlreadyExists) {
		return err
	}
	latest, found, err2 := m.store.Get(id)
	if err2 != nil {
		return err2
	}
	if !found {
		return bizerror.ErrNotFound
	}
	reason := bizerror.ConflictVersionMismatch
	if errors.Is(err, ErrAlreadyExists) {
		reason = bizerror.ConflictAlreadyExists
	}
	return stateConflict(reason, providedVersion, latest)
}

func (m *ReportManager) creationConflict(workerId, workDate, templateId string) error {
	matches, err := m.store.Find(StoreQuery{WorkerID: workerId, DateFrom: workDate, DateTo: workDate, TemplateID: templateId})
	if err != nil {
		return err
	}
	if winner := pickActive(matches); winner != nil {
		return stateConflict(bizerror.ConflictAlreadyExists, 0, winner)
	}
	return &bizerror.ConflictError{Reason: bizerror.ConflictAlreadyExists}
}

func stateConflict(reason string, providedVersion int, current *WorkReport) error {
	return &bizerror.ConflictError{
		Reason:          reason,
		ProvidedVersion: providedVersion,
		ExpectedVersion: current.Version,
		CurrentState:    string(current.State),
		LogID:           current.LogID,
	}
}

func pickActive(matches []WorkReport) *WorkReport {
	for i := range matches {
		if matches[i].ActiveKey != nil {
			return &matches[i]
		}
	}
	return nil
}

func naturalKey(workerId, workDate, templateId string) string {
	return fmt.Sprintf("%s|%s|%s", workerId, workDate, templateId)
}
