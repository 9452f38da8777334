package report_test

import (
	"cleanops/domain/report"
	"cleanops/session"
	"cleanops/testinfra"
	"testing"

	. "github.com/onsi/gomega"
)

func TestMasking(t *testing.T) {
	RegisterTestingT(t)

	worker := testinfra.BuildSecCtx("worker-1", session.RoleWorker)
	admin := testinfra.BuildSecCtx("admin-1", session.RoleAdmin)

	t.Run("should strip the free-form payload for workers on sensitive templates", func(t *testing.T) {
		manager, _ := setupManager(t, "counseling")
		saving := draftOf("worker-1", "2025-04-10")
		saving.TemplateID = "counseling"
		saving.RefType = "case"
		saving.RefID = "case-77"
		created, err := manager.SaveDraft(saving, worker)
		Expect(err).To(BeNil())

		detail, err := manager.DetailReport(created.LogID, worker)
		Expect(err).To(BeNil())
		Expect(detail.Masked).To(BeTrue())
		Expect(detail.Visibility).To(Equal(report.VisibilityPrivate))
		Expect(detail.Category).To(BeEmpty())
		Expect(detail.Description).To(BeEmpty())
		Expect(detail.Deliverables).To(BeEmpty())
		Expect(detail.RefType).To(BeEmpty())
		Expect(detail.RefID).To(BeEmpty())
		Expect(detail.TargetLabel).To(BeEmpty())

		// scheduling fields survive masking
		Expect(detail.StartAt).To(Equal("09:00"))
		Expect(detail.EndAt).To(Equal("18:00"))
		Expect(detail.WorkMinutes).To(Equal(480))
	})

	t.Run("should keep everything visible for admins", func(t *testing.T) {
		manager, _ := setupManager(t, "counseling")
		saving := draftOf("worker-1", "2025-04-10")
		saving.TemplateID = "counseling"
		created, err := manager.SaveDraft(saving, worker)
		Expect(err).To(BeNil())

		detail, err := manager.DetailReport(created.LogID, admin)
		Expect(err).To(BeNil())
		Expect(detail.Masked).To(BeFalse())
		Expect(detail.Description).To(Equal("ビル清掃"))
	})

	t.Run("should never mutate the stored record", func(t *testing.T) {
		manager, store := setupManager(t, "counseling")
		saving := draftOf("worker-1", "2025-04-10")
		saving.TemplateID = "counseling"
		created, err := manager.SaveDraft(saving, worker)
		Expect(err).To(BeNil())

		_, err = manager.DetailReport(created.LogID, worker)
		Expect(err).To(BeNil())

		stored, found, err := store.Get(created.LogID)
		Expect(err).To(BeNil())
		Expect(found).To(BeTrue())
		Expect(stored.Description).To(Equal("ビル清掃"))
		Expect(stored.Masked).To(BeFalse())
	})

	t.Run("should leave ordinary templates untouched", func(t *testing.T) {
		manager, _ := setupManager(t, "counseling")
		created, err := manager.SaveDraft(draftOf("worker-1", "2025-04-10"), worker)
		Expect(err).To(BeNil())

		detail, err := manager.DetailReport(created.LogID, worker)
		Expect(err).To(BeNil())
		Expect(detail.Masked).To(BeFalse())
		Expect(detail.Description).To(Equal("ビル清掃"))
	})
}
