package report

import (
	"cleanops/domain/state"
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/fundwit/go-commons/types"
)

const (
	HistoryTypeUpdate = "update"
	HistoryTypeState  = "state"
)

// HistoryEntry is one line of the append-only audit trail. ToState always
// equals the record state right after the entry was appended, so the full
// list replays the lifecycle.
type HistoryEntry struct {
	At   types.Timestamp `json:"at"`
	By   string          `json:"by"`
	Type string          `json:"type"`

	FromState state.State `json:"fromState,omitempty"`
	ToState   state.State `json:"toState"`
	Reason    string      `json:"reason,omitempty"`
}

// History is persisted as a JSON column.
type History []HistoryEntry

func (h History) Value() (driver.Value, error) {
	if h == nil {
		h = History{}
	}
	return json.Marshal(h)
}

func (h *History) Scan(src interface{}) error {
	if src == nil {
		*h = History{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	}
	return errors.New("unsupported history column type")
}

type WorkReport struct {
	LogID    types.ID `json:"logId" gorm:"primary_key;column:log_id"`
	WorkerID string   `json:"workerId"`
	WorkDate string   `json:"workDate"` // ISO date in the business time zone

	StartAt      string `json:"startAt"` // clock time "HH:MM"
	EndAt        string `json:"endAt"`
	NextDay      bool   `json:"nextDay"`
	BreakMinutes int    `json:"breakMinutes"`
	WorkMinutes  int    `json:"workMinutes"` // derived, never trusted from the caller

	Category     string `json:"category"`
	Description  string `json:"description"`
	Deliverables string `json:"deliverables"`
	RefType      string `json:"refType"`
	RefID        string `json:"refId"`
	TemplateID   string `json:"templateId"`
	TargetLabel  string `json:"targetLabel"`

	State   state.State `json:"state"`
	Version int         `json:"version"`
	History History     `json:"history" gorm:"type:text"`

	ShareToken string `json:"shareToken,omitempty"`

	// ActiveKey materializes the (worker, date, template) natural key while
	// the record still occupies it; nil once the key is released.
	ActiveKey *string `json:"-" gorm:"column:active_key;unique_index"`

	CreateTime types.Timestamp `json:"createTime"`
	UpdateTime types.Timestamp `json:"updateTime"`

	// masking markers, set at the read boundary only
	Visibility string `json:"visibility,omitempty" gorm:"-"`
	Masked     bool   `json:"masked,omitempty" gorm:"-"`
}

func (r *WorkReport) TableName() string {
	return "work_reports"
}

// Flags are review-attention markers computed per record at read time.
func (r *WorkReport) Flags() map[string]bool {
	flags := map[string]bool{
		"over12h":  r.WorkMinutes > 12*60,
		"no_break": r.WorkMinutes >= 6*60 && r.BreakMinutes == 0,
		"next_day": r.NextDay,
	}
	start, startErr := ParseClock(r.StartAt)
	end, endErr := ParseClock(r.EndAt)
	nightWork := r.NextDay
	if startErr == nil && start < 6*60 {
		nightWork = true
	}
	if endErr == nil && end > 22*60 {
		nightWork = true
	}
	flags["night_work"] = nightWork
	return flags
}
