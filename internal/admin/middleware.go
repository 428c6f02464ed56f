package admin

import (
	"net/http"

	"nowas_backend/internal/admin/handler"
	"nowas_backend/internal/admin/service"
	"nowas_backend/platform/session"

	"github.com/gin-gonic/gin"
)

// ContextSessionKey holds the resolved admin session on the gin context.
const ContextSessionKey = "adminSession"

// RequireAdmin lets the request through only with a signed cookie that
// points at a live authenticated session. Anything else goes to the login
// page.
func RequireAdmin(svc *service.Service, codec *session.CookieCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := codec.Read(c.Request)
		if !ok {
			c.Redirect(http.StatusSeeOther, handler.PathLogin)
			c.Abort()
			return
		}

		sess, err := svc.Resolve(c.Request.Context(), id)
		if err != nil {
			codec.Clear(c.Writer)
			c.Redirect(http.StatusSeeOther, handler.PathLogin)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, sess)
		c.Next()
	}
}
