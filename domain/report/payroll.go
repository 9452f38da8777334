package report

import (
	"cleanops/bizerror"
	"cleanops/domain/state"
	"cleanops/session"
	"sort"

	"github.com/fundwit/go-commons/types"
)

const (
	PayrollModeApproved = "approved-only"
	PayrollModeAll      = "all"
)

type PayrollRow struct {
	LogID        types.ID    `json:"logId"`
	WorkDate     string      `json:"workDate"`
	StartAt      string      `json:"startAt"`
	EndAt        string      `json:"endAt"`
	BreakMinutes int         `json:"breakMinutes"`
	WorkMinutes  int         `json:"workMinutes"`
	State        state.State `json:"state"`
}

type PayrollView struct {
	WorkerID string `json:"workerId"`
	Month    string `json:"month"`
	Mode     string `json:"mode"`

	TotalMinutes    int `json:"totalMinutes"`
	ApprovedMinutes int `json:"approvedMinutes"`

	Rows []PayrollRow `json:"rows"`
}

// PayrollMonth reduces one worker's records over one calendar month. The
// scan is bounded by the worker partition, never the whole store.
func (m *ReportManager) PayrollMonth(workerId, month, mode string, s *session.Session) (*PayrollView, error) {
	if !s.IsAdmin() && !s.Owns(workerId) {
		return nil, bizerror.ErrForbidden
	}
	if mode == "" {
		mode = PayrollModeApproved
	}
	if mode != PayrollModeApproved && mode != PayrollModeAll {
		return nil, bizerror.ErrUnknownState
	}

	from, to, err := MonthRange(month)
	if err != nil {
		return nil, err
	}

	records, err := m.store.Find(StoreQuery{WorkerID: workerId, DateFrom: from, DateTo: to})
	if err != nil {
		return nil, err
	}

	view := &PayrollView{WorkerID: workerId, Month: month, Mode: mode, Rows: []PayrollRow{}}
	for i := range records {
		r := &records[i]
		if mode == PayrollModeApproved && r.State != state.Approved {
			continue
		}
		view.Rows = append(view.Rows, PayrollRow{
			LogID:        r.LogID,
			WorkDate:     r.WorkDate,
			StartAt:      r.StartAt,
			EndAt:        r.EndAt,
			BreakMinutes: r.BreakMinutes,
			WorkMinutes:  r.WorkMinutes,
			State:        r.State,
		})
		view.TotalMinutes += r.WorkMinutes
		if r.State == state.Approved {
			view.ApprovedMinutes += r.WorkMinutes
		}
	}
	sort.Slice(view.Rows, func(i, j int) bool {
		if view.Rows[i].WorkDate != view.Rows[j].WorkDate {
			return view.Rows[i].WorkDate < view.Rows[j].WorkDate
		}
		return view.Rows[i].LogID < view.Rows[j].LogID
	})
	return view, nil
}
