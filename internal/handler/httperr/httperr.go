package httperr

import (
	"github.com/gin-gonic/gin"
)

// KindInternal marks failures no usecase error kind describes.
const KindInternal = "Internal"

// Response is the error envelope every endpoint returns:
// {"error":{"message","kind"},"detail"}.
type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
		Kind    string `json:"kind,omitempty"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

func NewResponse(status int, kind, msg string, detail any) Response {
	resp := Response{Status: status, Detail: detail}
	resp.Error.Message = msg
	resp.Error.Kind = kind
	return resp
}

// AbortWithKind writes the envelope and keeps err on the gin context for the
// request log.
func AbortWithKind(c *gin.Context, status int, err error, kind, msg string, detail any) {
	if err == nil {
		panic("httperr: err cannot be nil")
	}

	resp := NewResponse(status, kind, msg, detail)
	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}
