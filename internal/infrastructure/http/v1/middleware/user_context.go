package middleware

import (
	"github.com/gin-gonic/gin"

	"crmapi/internal/core/apperror"
	appctx "crmapi/internal/core/context"
)

// HeaderOrganizationID selects the active organization for one request.
const HeaderOrganizationID = "X-Organization-ID"

// Organization switches the active organization of the authenticated user to
// the one named in X-Organization-ID. The user must belong to it.
//
// This middleware must run AFTER Auth middleware.
func Organization() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetHeader(HeaderOrganizationID)
		user := appctx.GetUser(c.Request.Context())
		if orgID == "" || user == nil || orgID == user.OrgID {
			c.Next()
			return
		}

		if !appctx.HasOrgAccess(c.Request.Context(), orgID) {
			_ = c.Error(
				apperror.NewForbidden("not a member of the organization").
					WithDetail("organization_id", orgID),
			)
			c.Abort()
			return
		}

		scoped := *user
		scoped.OrgID = orgID
		c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), &scoped))
		c.Set("org_id", orgID)
		c.Next()
	}
}
