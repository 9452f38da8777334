package servehttp_test

import (
	"cleanops/bizerror"
	"cleanops/servehttp"
	"cleanops/testinfra"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func buildCorsRouter() *gin.Engine {
	router := gin.Default()
	router.Use(servehttp.CORS(), bizerror.ErrorHandling())
	router.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/conflicting", func(c *gin.Context) {
		panic(&bizerror.ConflictError{Reason: bizerror.ConflictVersionMismatch, ProvidedVersion: 1, ExpectedVersion: 2, CurrentState: "draft"})
	})
	router.GET("/missing", func(c *gin.Context) {
		panic(bizerror.ErrNotFound)
	})
	return router
}

func TestCORS(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should attach the headers to plain responses", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		status, _, resp := testinfra.ExecuteRequest(req, buildCorsRouter())
		Expect(status).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
	})

	t.Run("should answer preflight directly with the headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
		status, _, resp := testinfra.ExecuteRequest(req, buildCorsRouter())
		Expect(status).To(Equal(http.StatusNoContent))
		Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		Expect(resp.Header.Get("Access-Control-Allow-Methods")).To(ContainSubstring("PATCH"))
		Expect(resp.Header.Get("Access-Control-Allow-Headers")).To(ContainSubstring("Authorization"))
	})

	t.Run("should keep the headers on error responses", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/conflicting", nil)
		status, body, resp := testinfra.ExecuteRequest(req, buildCorsRouter())
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(ContainSubstring("conflict.version_mismatch"))
		Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))

		req = httptest.NewRequest(http.MethodGet, "/missing", nil)
		status, _, resp = testinfra.ExecuteRequest(req, buildCorsRouter())
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
	})
}
