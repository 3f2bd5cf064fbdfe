package middleware

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"order-pipeline/internal/handler/httperr"

	"github.com/gin-gonic/gin"
)

const (
	HeaderTenantID = "X-Tenant-ID"
	ctxTenantIDKey = "tenant_id"
)

var (
	errTenantMissing = errors.New("missing tenant header")
	errTenantInvalid = errors.New("invalid tenant header")

	tenantPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,64}$`)
)

// RequireTenant scopes the request to the tenant named in X-Tenant-ID.
// Tenant ids end up inside cache keys, so separators are rejected.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := strings.TrimSpace(c.GetHeader(HeaderTenantID))
		if tenantID == "" {
			httperr.AbortWithKind(c, http.StatusBadRequest, errTenantMissing, "InvalidRequest", "X-Tenant-ID header is required", nil)
			return
		}
		if !tenantPattern.MatchString(tenantID) {
			httperr.AbortWithKind(c, http.StatusBadRequest, errTenantInvalid, "InvalidRequest", "Invalid X-Tenant-ID header", nil)
			return
		}
		c.Set(ctxTenantIDKey, tenantID)
		c.Next()
	}
}

func GetTenantID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxTenantIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
