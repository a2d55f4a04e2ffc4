package core

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProblem(t *testing.T) {
	t.Run("Should default to internal server error", func(t *testing.T) {
		p := NormalizeProblem(nil)
		assert.Equal(t, http.StatusInternalServerError, p.Status)
		assert.Equal(t, "Internal Server Error", p.Title)
		assert.Equal(t, "about:blank", p.Type)
	})

	t.Run("Should keep explicit values", func(t *testing.T) {
		p := NormalizeProblem(&Problem{Status: http.StatusNotFound, Title: "Post not found"})
		assert.Equal(t, "Post not found", p.Title)
	})
}

func TestBuildProblemBody(t *testing.T) {
	t.Run("Should include field issues and code", func(t *testing.T) {
		p := NormalizeProblem(&Problem{
			Status: http.StatusBadRequest,
			Code:   "VALIDATION_FAILED",
			Fields: []FieldIssue{{Field: "title", Message: "title is required"}},
		})
		body := BuildProblemBody(p)
		assert.Equal(t, http.StatusBadRequest, body["status"])
		assert.Equal(t, "Bad Request", body["error"])
		assert.Equal(t, "VALIDATION_FAILED", body["code"])
		assert.Len(t, body["errors"], 1)
	})

	t.Run("Should not let extras override reserved keys", func(t *testing.T) {
		p := NormalizeProblem(&Problem{
			Status: http.StatusNotFound,
			Extras: map[string]any{"status": 200, "id": 7},
		})
		body := BuildProblemBody(p)
		assert.Equal(t, http.StatusNotFound, body["status"])
		assert.Equal(t, 7, body["id"])
		assert.NotContains(t, body, "details")
	})
}
