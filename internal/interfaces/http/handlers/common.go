// Common helper functions for HTTP handlers.

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ToxInsight/internal/interfaces/http/middleware"
	errs "github.com/turtacn/ToxInsight/pkg/errors"
	dto "github.com/turtacn/ToxInsight/pkg/types/molecule"
)

// errBodyTooLarge is reported when BodyLimit cut the request short.
var errBodyTooLarge = errs.New(errs.ErrCodeBadRequest, "request body too large")

// bindJSON decodes the body into dst. A missing or malformed body leaves dst
// at its zero value so callers treat it as "no SMILES"; only an oversized
// body is reported.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// writeError writes {"error": message} plus the code and request ID.
func writeError(c *gin.Context, statusCode int, err error) {
	resp := dto.ErrorResponse{
		Error:     errs.Message(err),
		RequestID: middleware.GetRequestID(c),
	}
	if code := errs.GetCode(err); code != errs.CodeUnknown && code != errs.CodeOK {
		resp.Code = code.String()
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusCode, resp)
}

//Personal.AI order the ending
