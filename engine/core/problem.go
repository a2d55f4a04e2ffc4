package core

import "net/http"

// ProblemDocument models the error envelope returned by the API.
type ProblemDocument struct {
	Status  int          `json:"status"`
	Error   string       `json:"error"`
	Details string       `json:"details,omitempty"`
	Code    string       `json:"code,omitempty"`
	Type    string       `json:"type,omitempty"`
	Errors  []FieldIssue `json:"errors,omitempty"`
}

// FieldIssue reports one invalid request field.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Problem captures the information returned in an error response.
type Problem struct {
	Type   string
	Title  string
	Status int
	Detail string
	Code   string
	Fields []FieldIssue
	Extras map[string]any
}

// NormalizeProblem fills in status, title and type defaults.
func NormalizeProblem(problem *Problem) *Problem {
	if problem == nil {
		problem = &Problem{}
	}
	if problem.Status == 0 {
		problem.Status = http.StatusInternalServerError
	}
	if problem.Title == "" {
		problem.Title = http.StatusText(problem.Status)
	}
	if problem.Type == "" {
		problem.Type = "about:blank"
	}
	return problem
}

// BuildProblemBody assembles the serialized representation of the problem.
// Extras never override the reserved envelope keys.
func BuildProblemBody(problem *Problem) map[string]any {
	body := make(map[string]any, 6+len(problem.Extras))
	for key, value := range problem.Extras {
		if !isReservedProblemKey(key) {
			body[key] = value
		}
	}
	body["status"] = problem.Status
	body["error"] = problem.Title
	if problem.Detail != "" {
		body["details"] = problem.Detail
	}
	if problem.Code != "" {
		body["code"] = problem.Code
	}
	if problem.Type != "" {
		body["type"] = problem.Type
	}
	if len(problem.Fields) > 0 {
		body["errors"] = problem.Fields
	}
	return body
}

func isReservedProblemKey(key string) bool {
	switch key {
	case "status", "error", "details", "code", "type", "errors":
		return true
	default:
		return false
	}
}
