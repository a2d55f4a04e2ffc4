package router

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devopsblog/blog/engine/core"
	"github.com/devopsblog/blog/pkg/logger"
)

const problemContentType = "application/json; charset=utf-8"

// RespondProblem writes the error envelope for problem and aborts the chain.
func RespondProblem(c *gin.Context, problem *core.Problem) {
	prepared := core.NormalizeProblem(problem)
	body := core.BuildProblemBody(prepared)
	writeProblemResponse(c, prepared, body)
}

// RespondProblemWithCode writes a problem response embedding a code and detail.
func RespondProblemWithCode(c *gin.Context, status int, code string, detail string) {
	RespondProblem(c, &core.Problem{
		Status: status,
		Title:  http.StatusText(status),
		Detail: detail,
		Code:   code,
	})
}

// RespondValidation writes a 400 listing every invalid field.
func RespondValidation(c *gin.Context, fields []core.FieldIssue) {
	RespondProblem(c, &core.Problem{
		Status: http.StatusBadRequest,
		Detail: ErrMsgValidation,
		Code:   ErrValidationCode,
		Fields: fields,
	})
}

// RespondInternal writes a generic 500. err is logged with the response and
// never reaches the client.
func RespondInternal(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	RespondProblemWithCode(c, http.StatusInternalServerError, ErrInternalCode, ErrMsgInternal)
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Request.URL.Path
}

func writeProblemResponse(c *gin.Context, problem *core.Problem, body map[string]any) {
	logProblem(c, problem)
	payload, err := json.Marshal(body)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Failed to encode problem response", "error", err)
		fallback := []byte(`{"status":500,"error":"Internal Server Error"}`)
		c.Data(http.StatusInternalServerError, problemContentType, fallback)
		c.Abort()
		return
	}
	c.Data(problem.Status, problemContentType, payload)
	c.Abort()
}

func logProblem(c *gin.Context, problem *core.Problem) {
	log := logger.FromContext(c.Request.Context())
	fields := []any{
		"method", c.Request.Method,
		"status", problem.Status,
		"detail", problem.Detail,
		"route", routeOf(c),
	}
	if problem.Code != "" {
		fields = append(fields, "code", problem.Code)
	}
	if len(problem.Fields) > 0 {
		fields = append(fields, "fields", len(problem.Fields))
	}
	if requestID := c.Request.Header.Get("X-Request-ID"); requestID != "" {
		fields = append(fields, "request_id", requestID)
	} else if requestID := c.Writer.Header().Get("X-Request-ID"); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if problem.Status >= http.StatusInternalServerError {
		if last := c.Errors.Last(); last != nil {
			fields = append(fields, "error", last.Err)
		}
		log.Error("Request failed", fields...)
		return
	}
	log.Warn("Request rejected", fields...)
}
