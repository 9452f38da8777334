package report

import "cleanops/session"

const VisibilityPrivate = "private"

// Mask applies role-derived field visibility before a record leaves the
// engine. The stored record is never modified; callers get a copy.
// Non-admin readers of a privacy-sensitive template lose the free-form
// payload while the scheduling fields stay visible.
func (m *ReportManager) Mask(r *WorkReport, s *session.Session) *WorkReport {
	masked := *r
	if s.IsAdmin() {
		return &masked
	}
	if !m.privateTemplates[r.TemplateID] {
		return &masked
	}

	masked.Category = ""
	masked.Description = ""
	masked.Deliverables = ""
	masked.RefType = ""
	masked.RefID = ""
	masked.TargetLabel = ""
	masked.Visibility = VisibilityPrivate
	masked.Masked = true
	return &masked
}
