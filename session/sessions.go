package session

import (
	"cleanops/bizerror"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

const VerificationExpiration = 5 * time.Minute

// VerificationCache holds verified sessions keyed by credential so the
// identity provider is not consulted on every request.
var VerificationCache = cache.New(VerificationExpiration, 1*time.Minute)

const KeySecCtx = "SecCtx"

// IdentityVerifier is the external identity-provider collaborator. It
// returns nil (with a nil error) for credentials it does not recognize.
type IdentityVerifier interface {
	Verify(credential string) (*Identity, error)
}

func ExtractSessionFromGinContext(ctx *gin.Context) *Session {
	value, found := ctx.Get(KeySecCtx)
	if !found {
		return &Session{Context: ctx.Request.Context()}
	}
	s0, ok := value.(*Session)
	if !ok || s0.Token == "" {
		return &Session{Context: ctx.Request.Context()}
	}
	s := s0.Clone()
	s.Context = ctx.Request.Context() // trace context
	return &s
}

func BearerAuthFilter(verifier IdentityVerifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			panic(bizerror.ErrUnauthenticated)
		}

		if cached, found := VerificationCache.Get(token); found {
			if s, ok := cached.(*Session); ok {
				InjectSessionIntoGinContext(ctx, s)
				ctx.Next()
				return
			}
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			panic(err)
		}
		if identity == nil {
			panic(bizerror.ErrUnauthenticated)
		}
		s := &Session{Token: token, Identity: *identity, VerifyTime: time.Now()}
		VerificationCache.Set(token, s, VerificationExpiration)
		InjectSessionIntoGinContext(ctx, s)
		ctx.Next()
	}
}

// RequireAdminFilter rejects non-admin sessions before the handler runs.
func RequireAdminFilter() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		s := ExtractSessionFromGinContext(ctx)
		if s.Token == "" {
			panic(bizerror.ErrUnauthenticated)
		}
		if !s.IsAdmin() {
			panic(bizerror.ErrForbidden)
		}
		ctx.Next()
	}
}

func InjectSessionIntoGinContext(ctx *gin.Context, s *Session) {
	if s != nil && s.Token != "" {
		ctx.Set(KeySecCtx, s)
	}
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return ""
}
