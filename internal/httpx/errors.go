package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
)

// ErrorBody is the payload of every non-2xx response.
// swagger:model
type ErrorBody struct {
	// machine-readable kind, e.g. NOT_FOUND
	Error string `json:"error" example:"NOT_FOUND"`
	// human readable text
	Message string `json:"message" example:"order not found"`
}

// WriteError maps err to its status code and aborts the request.
func WriteError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), ErrorBody{
		Error:   string(kind),
		Message: apperr.Message(err),
	})
}

// BadRequest reports a body or path that could not be bound.
func BadRequest(c *gin.Context, msg string) {
	WriteError(c, apperr.InvalidArgument("%s", msg))
}

func forbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, ErrorBody{
		Error:   "FORBIDDEN",
		Message: "insufficient role",
	})
}
