package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FieldError is one element of the errors array returned for every
// client-caused failure.
type FieldError struct {
	Msg string `json:"msg"`
}

// ErrorList writes a JSON body of the form {"errors":[{"msg":...},...]}.
func ErrorList(ctx *gin.Context, status int, msgs ...string) {
	errs := make([]FieldError, 0, len(msgs))
	for _, m := range msgs {
		errs = append(errs, FieldError{Msg: m})
	}
	ctx.JSON(status, gin.H{"errors": errs})
}

// ValidationError rejects a request with 400 and the given messages.
func ValidationError(ctx *gin.Context, msgs ...string) {
	ErrorList(ctx, http.StatusBadRequest, msgs...)
}

// Unauthorized rejects a request with 401.
func Unauthorized(ctx *gin.Context, msg string) {
	ErrorList(ctx, http.StatusUnauthorized, msg)
}

// NotFound rejects a request with 404.
func NotFound(ctx *gin.Context, msg string) {
	ErrorList(ctx, http.StatusNotFound, msg)
}

// ServerError logs the underlying fault and responds with a generic plain
// text 500. The cause is never surfaced to the caller.
func ServerError(ctx *gin.Context, err error) {
	if Sugar != nil {
		Sugar.Errorw("internal error",
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"error", err,
		)
	}
	ctx.String(http.StatusInternalServerError, "Server Error")
}
