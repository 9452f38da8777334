package recordstore

import (
	"cleanops/bizerror"
	"cleanops/domain/report"
	"cleanops/persistence"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/fundwit/go-commons/types"
	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"
)

const mysqlDuplicateEntry = 1062

var _ report.Store = (*GormStore)(nil)

// GormStore runs every write as a single conditional statement; the
// version column in the WHERE clause is the optimistic-lock precondition.
type GormStore struct {
	ds *persistence.DataSourceManager
}

func NewGormStore(ds *persistence.DataSourceManager) *GormStore {
	return &GormStore{ds: ds}
}

func (s *GormStore) Get(id types.ID) (*report.WorkReport, bool, error) {
	r := report.WorkReport{}
	db := s.ds.GormDB()
	if err := db.Where("log_id = ?", id).First(&r).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, false, nil
		}
		return nil, false, storeError(err)
	}
	return &r, true, nil
}

func (s *GormStore) Create(r *report.WorkReport) error {
	db := s.ds.GormDB()
	if err := db.Create(r).Error; err != nil {
		return storeError(err)
	}
	return nil
}

func (s *GormStore) ConditionalPut(r *report.WorkReport, expectedVersion int) error {
	db := s.ds.GormDB()
	query := db.Model(&report.WorkReport{}).
		Where("log_id = ? AND version = ?", r.LogID, expectedVersion).
		Updates(columnsOf(r))
	if err := query.Error; err != nil {
		return storeError(err)
	}
	if query.RowsAffected != 1 {
		return report.ErrVersionConflict
	}
	return nil
}

func (s *GormStore) Find(q report.StoreQuery) ([]report.WorkReport, error) {
	records := []report.WorkReport{}
	db := s.ds.GormDB().Model(&report.WorkReport{})
	if q.WorkerID != "" {
		db = db.Where("worker_id = ?", q.WorkerID)
	}
	if q.TemplateID != "" {
		db = db.Where("template_id = ?", q.TemplateID)
	}
	if q.DateFrom != "" {
		db = db.Where("work_date >= ?", q.DateFrom)
	}
	if q.DateTo != "" {
		db = db.Where("work_date <= ?", q.DateTo)
	}
	if len(q.States) > 0 {
		db = db.Where("state in (?)", q.States)
	}
	if err := db.Find(&records).Error; err != nil {
		return nil, storeError(err)
	}
	return records, nil
}

// columnsOf lists every mutable column explicitly; gorm struct updates
// would silently skip zero values like next_day=false.
func columnsOf(r *report.WorkReport) map[string]interface{} {
	return map[string]interface{}{
		"worker_id":     r.WorkerID,
		"work_date":     r.WorkDate,
		"start_at":      r.StartAt,
		"end_at":        r.EndAt,
		"next_day":      r.NextDay,
		"break_minutes": r.BreakMinutes,
		"work_minutes":  r.WorkMinutes,
		"category":      r.Category,
		"description":   r.Description,
		"deliverables":  r.Deliverables,
		"ref_type":      r.RefType,
		"ref_id":        r.RefID,
		"template_id":   r.TemplateID,
		"target_label":  r.TargetLabel,
		"state":         r.State,
		"version":       r.Version,
		"history":       r.History,
		"share_token":   r.ShareToken,
		"active_key":    r.ActiveKey,
		"update_time":   r.UpdateTime,
	}
}

func storeError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return report.ErrAlreadyExists
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", bizerror.ErrUnavailable, err)
	}
	return err
}
