package report

import (
	"cleanops/bizerror"
	"cleanops/common"
	"cleanops/domain/state"
	"cleanops/session"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100

	defaultRangeDays = 7
)

type WorkerReportQuery struct {
	Month    string `form:"month"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
	State    string `form:"state"`
	Limit    int    `form:"limit"`
}

type ReviewQuery struct {
	From      string   `form:"from"`
	To        string   `form:"to"`
	States    []string `form:"states"`
	Templates []string `form:"templates"`
	QTarget   string   `form:"q_target"`
	QUser     string   `form:"q_user"`
	Flags     []string `form:"flags"`
	Cursor    string   `form:"cursor"`
	Limit     int      `form:"limit"`
}

type ReviewPage struct {
	List   []WorkReport `json:"list"`
	Cursor string       `json:"cursor,omitempty"`
}

// QueryWorkerReports lists the calling worker's own records, newest first.
func (m *ReportManager) QueryWorkerReports(q *WorkerReportQuery, s *session.Session) ([]WorkReport, error) {
	if s.Identity.Role != session.RoleWorker {
		return nil, bizerror.ErrForbidden
	}

	var from, to string
	var err error
	if q.Month != "" {
		from, to, err = MonthRange(q.Month)
		if err != nil {
			return nil, err
		}
	} else if q.DateFrom != "" || q.DateTo != "" {
		from, to = q.DateFrom, q.DateTo
	} else {
		from, to = trailingRange(defaultRangeDays)
	}

	storeQuery := StoreQuery{WorkerID: s.Identity.Subject, DateFrom: from, DateTo: to}
	if q.State != "" {
		wanted, found := state.ReportStateMachine.FindState(q.State)
		if !found {
			return nil, bizerror.ErrUnknownState
		}
		storeQuery.States = []state.State{wanted}
	}

	records, err := m.store.Find(storeQuery)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(records)
	records = truncate(records, pageSize(q.Limit))

	masked := make([]WorkReport, 0, len(records))
	for i := range records {
		masked = append(masked, *m.Mask(&records[i], s))
	}
	return masked, nil
}

// QueryReviewList is the admin review listing: one scan per requested
// state, merged, deduplicated, filtered in memory, stably sorted and cut to
// one page. Listings are not linearizable with concurrent writes.
func (m *ReportManager) QueryReviewList(q *ReviewQuery, s *session.Session) (*ReviewPage, error) {
	if !s.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}

	from, to := q.From, q.To
	if from == "" && to == "" {
		from, to = trailingRange(defaultRangeDays)
	}

	states, err := resolveStates(q.States)
	if err != nil {
		return nil, err
	}

	var cursor *listCursor
	if q.Cursor != "" {
		cursor, err = decodeCursor(q.Cursor)
		if err != nil {
			return nil, &bizerror.ErrBadParam{Cause: errors.New("invalid cursor")}
		}
	}

	seen := map[types.ID]bool{}
	merged := []WorkReport{}
	for _, st := range states {
		records, err := m.store.Find(StoreQuery{States: []state.State{st}, DateFrom: from, DateTo: to})
		if err != nil {
			return nil, err
		}
		for i := range records {
			if seen[records[i].LogID] {
				continue
			}
			seen[records[i].LogID] = true
			merged = append(merged, records[i])
		}
	}

	filtered := merged[:0]
	for i := range merged {
		if matchesReviewFilters(&merged[i], q) {
			filtered = append(filtered, merged[i])
		}
	}
	sortNewestFirst(filtered)

	if cursor != nil {
		cut := 0
		for cut < len(filtered) && !cursor.before(&filtered[cut]) {
			cut++
		}
		filtered = filtered[cut:]
	}

	limit := pageSize(q.Limit)
	page := truncate(filtered, limit)

	result := &ReviewPage{List: page}
	if len(filtered) > limit && len(page) > 0 {
		last := &page[len(page)-1]
		result.Cursor = encodeCursor(last)
	}
	return result, nil
}

func resolveStates(names []string) ([]state.State, error) {
	if len(names) == 0 {
		return state.VisibleNonTerminalStates(), nil
	}
	states := []state.State{}
	for _, name := range names {
		s, found := state.ReportStateMachine.FindState(name)
		if !found {
			return nil, bizerror.ErrUnknownState
		}
		states = append(states, s)
	}
	return states, nil
}

func matchesReviewFilters(r *WorkReport, q *ReviewQuery) bool {
	if len(q.Templates) > 0 {
		found := false
		for _, t := range q.Templates {
			if t == r.TemplateID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.QTarget != "" && !strings.Contains(r.TargetLabel, q.QTarget) {
		return false
	}
	if q.QUser != "" && !strings.Contains(r.WorkerID, q.QUser) {
		return false
	}
	if len(q.Flags) > 0 {
		flags := r.Flags()
		for _, flag := range q.Flags {
			if !flags[flag] {
				return false
			}
		}
	}
	return true
}

func sortNewestFirst(records []WorkReport) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := &records[i], &records[j]
		if a.WorkDate != b.WorkDate {
			return a.WorkDate > b.WorkDate
		}
		at, bt := a.UpdateTime.Time(), b.UpdateTime.Time()
		if !at.Equal(bt) {
			return at.After(bt)
		}
		return a.LogID > b.LogID
	})
}

func pageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

func truncate(records []WorkReport, limit int) []WorkReport {
	if len(records) > limit {
		return records[:limit]
	}
	return records
}

func trailingRange(days int) (string, string) {
	now := time.Now().In(common.BusinessLocation)
	return now.AddDate(0, 0, -(days - 1)).Format("2006-01-02"), now.Format("2006-01-02")
}

// listCursor is the sort key of the last returned item.
type listCursor struct {
	WorkDate   string   `json:"d"`
	UpdateUnix int64    `json:"u"`
	LogID      types.ID `json:"l"`
}

// before reports whether r sorts strictly after the cursor position, i.e.
// belongs to the next page.
func (c *listCursor) before(r *WorkReport) bool {
	if r.WorkDate != c.WorkDate {
		return r.WorkDate < c.WorkDate
	}
	ru := r.UpdateTime.Time().UnixNano()
	if ru != c.UpdateUnix {
		return ru < c.UpdateUnix
	}
	return r.LogID < c.LogID
}

func encodeCursor(r *WorkReport) string {
	raw, _ := json.Marshal(listCursor{WorkDate: r.WorkDate, UpdateUnix: r.UpdateTime.Time().UnixNano(), LogID: r.LogID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(value string) (*listCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, err
	}
	cursor := listCursor{}
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return nil, err
	}
	return &cursor, nil
}
