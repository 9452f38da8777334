package export

import (
	"cleanops/bizerror"
	"cleanops/domain/report"
	"cleanops/session"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const StatusReady = "ready"

type Artifact struct {
	ArtifactKey string `json:"artifactKey"`
	ArtifactUrl string `json:"artifactUrl"`
	Status      string `json:"status"`
}

type ExportedReport struct {
	ID types.ID `json:"id"`
	Artifact
}

type BulkExportResult struct {
	Ok []ExportedReport `json:"ok"`
	Ng []report.NgEntry `json:"ng"`
}

// Renderer is the document-rendering collaborator: given a report it
// produces the PDF bytes. Rendering internals are outside this engine.
type Renderer interface {
	RenderPDF(r *report.WorkReport) ([]byte, error)
}

// ArtifactStorage persists rendered documents and hands out retrievable
// URLs. The production implementation is OSS-backed.
type ArtifactStorage interface {
	Put(key string, content []byte) error
	SignURL(key string, expiresInSec int64) (string, error)
}

type ExporterTraits interface {
	ExportPDF(id types.ID, s *session.Session) (*Artifact, error)
	BulkExportPDF(ids []types.ID, s *session.Session) (*BulkExportResult, error)
}

type Exporter struct {
	reports  report.ReportManagerTraits
	renderer Renderer
	storage  ArtifactStorage

	// limiter paces bulk rendering so one batch cannot saturate the
	// rendering collaborator.
	limiter *rate.Limiter

	signExpirySec int64
}

func NewExporter(reports report.ReportManagerTraits, renderer Renderer, storage ArtifactStorage) *Exporter {
	return &Exporter{
		reports:       reports,
		renderer:      renderer,
		storage:       storage,
		limiter:       rate.NewLimiter(rate.Every(200*time.Millisecond), 2),
		signExpirySec: 3600,
	}
}

func (e *Exporter) ExportPDF(id types.ID, s *session.Session) (*Artifact, error) {
	if !s.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	r, err := e.reports.DetailReport(id, s)
	if err != nil {
		return nil, err
	}

	content, err := e.renderer.RenderPDF(r)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("work-reports/%s/%s.pdf", r.LogID.String(), uuid.New().String())
	if err := e.storage.Put(key, content); err != nil {
		return nil, err
	}
	url, err := e.storage.SignURL(key, e.signExpirySec)
	if err != nil {
		return nil, err
	}
	return &Artifact{ArtifactKey: key, ArtifactUrl: url, Status: StatusReady}, nil
}

func (e *Exporter) BulkExportPDF(ids []types.ID, s *session.Session) (*BulkExportResult, error) {
	if !s.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	ctx := s.Context
	if ctx == nil {
		ctx = context.Background()
	}

	result := &BulkExportResult{Ok: []ExportedReport{}, Ng: []report.NgEntry{}}
	for _, id := range ids {
		if err := e.limiter.Wait(ctx); err != nil {
			result.Ng = append(result.Ng, report.NgEntry{ID: id, Code: "canceled", Message: err.Error()})
			continue
		}
		artifact, err := e.ExportPDF(id, s)
		if err != nil {
			result.Ng = append(result.Ng, NgOf(id, err))
			continue
		}
		result.Ok = append(result.Ok, ExportedReport{ID: id, Artifact: *artifact})
	}
	return result, nil
}

func NgOf(id types.ID, err error) report.NgEntry {
	if errors.Is(err, bizerror.ErrNotFound) {
		return report.NgEntry{ID: id, Code: "not_found", Message: "record not found"}
	}
	return report.NgEntry{ID: id, Code: "export_failed", Message: err.Error()}
}
