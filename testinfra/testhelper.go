package testinfra

import (
	"cleanops/session"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
)

// ExecuteRequest runs a request through the router and returns status,
// body and response.
func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string, *http.Response) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	resp := w.Result()
	bodyBytes, _ := ioutil.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, string(bodyBytes), resp
}

// BuildSecCtx builds a verified session for tests.
func BuildSecCtx(subject, role string) *session.Session {
	return &session.Session{
		Token:      "test-token-" + subject,
		Identity:   session.Identity{Subject: subject, Name: subject, Role: role},
		VerifyTime: time.Now(),
	}
}

// SessionFilter injects a fixed session, standing in for the bearer auth
// filter in REST tests.
func SessionFilter(s *session.Session) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		session.InjectSessionIntoGinContext(ctx, s)
		ctx.Next()
	}
}
