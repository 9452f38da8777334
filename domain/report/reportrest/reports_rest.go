package reportrest

import (
	"bytes"
	"cleanops/bizerror"
	"cleanops/domain/export"
	"cleanops/domain/report"
	"cleanops/misc"
	"cleanops/session"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	PathWorkerReports = "/work-report"
	PathAdminReports  = "/admin/work-reports"
	PathAdminPayroll  = "/admin/payroll"
)

func RegisterWorkReportRestAPI(r *gin.Engine, m report.ReportManagerTraits, e export.ExporterTraits, middleWares ...gin.HandlerFunc) {
	handler := &workReportHandler{manager: m, exporter: e, validator: validator.New()}

	w := r.Group(PathWorkerReports, middleWares...)
	w.GET("", handler.handleWorkerQuery)
	w.GET(":id", handler.handleDetail)
	w.PUT("", handler.handleSaveDraft)
	w.PATCH("", handler.handleWorkerPatch)
	w.PATCH(":id", handler.handleWorkerPatch)

	adminWares := append(append([]gin.HandlerFunc{}, middleWares...), session.RequireAdminFilter())
	a := r.Group(PathAdminReports, adminWares...)
	a.GET("", handler.handleReviewQuery)
	a.GET(":id", handler.handleDetail)
	a.PATCH(":id/state", handler.handleTransitionState)
	// "bulk" arrives through the :id segment: gin does not allow a static
	// sibling next to a path parameter.
	a.POST(":id/state", handler.handleBulkState)
	a.POST(":id/archive", handler.handleBulkArchive)
	a.POST(":id/export/pdf", handler.handleExportPDF)

	p := r.Group(PathAdminPayroll, adminWares...)
	p.GET(":workerId/:month", handler.handlePayroll)
}

type workReportHandler struct {
	manager   report.ReportManagerTraits
	exporter  export.ExporterTraits
	validator *validator.Validate
}

func (h *workReportHandler) handleWorkerQuery(c *gin.Context) {
	query := report.WorkerReportQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	records, err := h.manager.QueryWorkerReports(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func (h *workReportHandler) handleDetail(c *gin.Context) {
	detail, err := h.manager.DetailReport(parseId(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func (h *workReportHandler) handleSaveDraft(c *gin.Context) {
	saving := report.DraftSaving{}
	h.bindStrictJSON(c, &saving)

	detail, err := h.manager.SaveDraft(&saving, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

type workerPatchBody struct {
	LogID types.ID `json:"logId"`
	report.WorkerStatePatch
}

func (h *workReportHandler) handleWorkerPatch(c *gin.Context) {
	body := workerPatchBody{}
	h.bindStrictJSON(c, &body)

	id := body.LogID
	if c.Param("id") != "" {
		id = parseId(c)
	}
	if id == 0 {
		panic(&bizerror.ErrBadParam{Cause: errors.New("logId is required")})
	}

	detail, err := h.manager.PatchState(id, &body.WorkerStatePatch, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func (h *workReportHandler) handleReviewQuery(c *gin.Context) {
	query := report.ReviewQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	query.States = splitMulti(query.States)
	query.Templates = splitMulti(query.Templates)
	query.Flags = splitMulti(query.Flags)

	page, err := h.manager.QueryReviewList(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, page)
}

func (h *workReportHandler) handleTransitionState(c *gin.Context) {
	transition := report.StateTransition{}
	h.bindStrictJSON(c, &transition)

	detail, err := h.manager.TransitionState(parseId(c), &transition, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func (h *workReportHandler) handleBulkState(c *gin.Context) {
	requireBulkSegment(c)

	bulk := report.BulkTransition{}
	h.bindStrictJSON(c, &bulk)

	result, err := h.manager.BulkTransition(&bulk, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func (h *workReportHandler) handleBulkArchive(c *gin.Context) {
	requireBulkSegment(c)

	selection := report.BulkSelection{}
	h.bindStrictJSON(c, &selection)

	result, err := h.manager.BulkArchive(&selection, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func (h *workReportHandler) handleExportPDF(c *gin.Context) {
	if c.Param("id") == "bulk" {
		selection := report.BulkSelection{}
		h.bindStrictJSON(c, &selection)

		result, err := h.exporter.BulkExportPDF(selection.IDs, session.ExtractSessionFromGinContext(c))
		if err != nil {
			panic(err)
		}
		c.JSON(http.StatusOK, result)
		return
	}

	artifact, err := h.exporter.ExportPDF(parseId(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, artifact)
}

func (h *workReportHandler) handlePayroll(c *gin.Context) {
	view, err := h.manager.PayrollMonth(c.Param("workerId"), c.Param("month"), c.Query("state"),
		session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, view)
}

// bindStrictJSON decodes the body rejecting unknown fields: mutations are
// allow-list only, arbitrary keys never reach the store.
func (h *workReportHandler) bindStrictJSON(c *gin.Context, obj interface{}) {
	raw, err := c.GetRawData()
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(obj); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(obj); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
}

func parseId(c *gin.Context) types.ID {
	parsedId, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}
	return parsedId
}

func requireBulkSegment(c *gin.Context) {
	if c.Param("id") != "bulk" {
		panic(bizerror.ErrNotFound)
	}
}

func splitMulti(values []string) []string {
	result := []string{}
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}
