package export_test

import (
	"cleanops/bizerror"
	"cleanops/domain/export"
	"cleanops/domain/report"
	"cleanops/recordstore"
	"cleanops/session"
	"cleanops/testinfra"
	"errors"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/fundwit/go-commons/types"
)

type fakeRenderer struct {
	rendered []types.ID
	fail     bool
}

func (f *fakeRenderer) RenderPDF(r *report.WorkReport) ([]byte, error) {
	if f.fail {
		return nil, errors.New("render backend down")
	}
	f.rendered = append(f.rendered, r.LogID)
	return []byte("%PDF-1.4 " + r.WorkDate), nil
}

type fakeStorage struct {
	objects map[string][]byte
}

func (f *fakeStorage) Put(key string, content []byte) error {
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = content
	return nil
}

func (f *fakeStorage) SignURL(key string, expiresInSec int64) (string, error) {
	return "https://artifacts.example.com/" + key + "?signed", nil
}

func setupExporter(t *testing.T) (*export.Exporter, *report.ReportManager, *fakeRenderer, *fakeStorage) {
	manager := report.NewReportManager(recordstore.NewMemoryStore(), nil)
	renderer := &fakeRenderer{}
	storage := &fakeStorage{}
	return export.NewExporter(manager, renderer, storage), manager, renderer, storage
}

func seedReport(manager *report.ReportManager, date string) types.ID {
	worker := testinfra.BuildSecCtx("worker-1", session.RoleWorker)
	created, err := manager.SaveDraft(&report.DraftSaving{
		WorkDate: date, StartAt: "09:00", EndAt: "18:00", BreakMinutes: 60, TemplateID: "daily",
	}, worker)
	Expect(err).To(BeNil())
	return created.LogID
}

func TestExportPDF(t *testing.T) {
	RegisterTestingT(t)

	admin := testinfra.BuildSecCtx("admin-1", session.RoleAdmin)
	worker := testinfra.BuildSecCtx("worker-1", session.RoleWorker)

	t.Run("should render, store and sign a single report", func(t *testing.T) {
		exporter, manager, renderer, storage := setupExporter(t)
		id := seedReport(manager, "2025-04-10")

		artifact, err := exporter.ExportPDF(id, admin)
		Expect(err).To(BeNil())
		Expect(artifact.Status).To(Equal(export.StatusReady))
		Expect(artifact.ArtifactKey).To(HavePrefix("work-reports/" + id.String() + "/"))
		Expect(artifact.ArtifactKey).To(HaveSuffix(".pdf"))
		Expect(artifact.ArtifactUrl).To(Equal("https://artifacts.example.com/" + artifact.ArtifactKey + "?signed"))

		Expect(renderer.rendered).To(Equal([]types.ID{id}))
		Expect(string(storage.objects[artifact.ArtifactKey])).To(ContainSubstring("2025-04-10"))
	})

	t.Run("should refuse non-admin sessions", func(t *testing.T) {
		exporter, manager, _, _ := setupExporter(t)
		id := seedReport(manager, "2025-04-10")

		_, err := exporter.ExportPDF(id, worker)
		Expect(errors.Is(err, bizerror.ErrForbidden)).To(BeTrue())
	})

	t.Run("should pass renderer failures through", func(t *testing.T) {
		exporter, manager, renderer, _ := setupExporter(t)
		id := seedReport(manager, "2025-04-10")
		renderer.fail = true

		_, err := exporter.ExportPDF(id, admin)
		Expect(err).ToNot(BeNil())
		Expect(strings.Contains(err.Error(), "render backend down")).To(BeTrue())
	})
}

func TestBulkExportPDF(t *testing.T) {
	RegisterTestingT(t)

	admin := testinfra.BuildSecCtx("admin-1", session.RoleAdmin)

	t.Run("should account every id with partial success", func(t *testing.T) {
		exporter, manager, _, _ := setupExporter(t)
		id1 := seedReport(manager, "2025-04-10")
		id2 := seedReport(manager, "2025-04-11")
		missing := types.ID(404404)

		result, err := exporter.BulkExportPDF([]types.ID{id1, missing, id2}, admin)
		Expect(err).To(BeNil())
		Expect(result.Ok).To(HaveLen(2))
		Expect(result.Ok[0].ID).To(Equal(id1))
		Expect(result.Ok[1].ID).To(Equal(id2))
		Expect(result.Ng).To(HaveLen(1))
		Expect(result.Ng[0].ID).To(Equal(missing))
		Expect(result.Ng[0].Code).To(Equal("not_found"))
	})

	t.Run("should refuse workers before any rendering", func(t *testing.T) {
		exporter, manager, renderer, _ := setupExporter(t)
		id := seedReport(manager, "2025-04-10")

		_, err := exporter.BulkExportPDF([]types.ID{id}, testinfra.BuildSecCtx("worker-1", session.RoleWorker))
		Expect(errors.Is(err, bizerror.ErrForbidden)).To(BeTrue())
		Expect(renderer.rendered).To(BeEmpty())
	})
}
