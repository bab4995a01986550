package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Problem types for RFC 7807 Problem Details responses.
const (
	ProblemTypeNotFound          = "https://productview.dev/problems/not-found"
	ProblemTypeMethodNotAllowed  = "https://productview.dev/problems/method-not-allowed"
	ProblemTypeSourceUnavailable = "https://productview.dev/problems/source-unavailable"
	ProblemTypeInternal          = "https://productview.dev/problems/internal-error"
	ProblemTypeRateLimited       = "https://productview.dev/problems/rate-limited"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// writeProblem aborts the request with p.
func writeProblem(c *gin.Context, p Problem) {
	if p.Instance == "" {
		p.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(p.Status, p)
}

func notFound(c *gin.Context) {
	writeProblem(c, Problem{
		Type:   ProblemTypeNotFound,
		Title:  "Not Found",
		Status: http.StatusNotFound,
		Detail: "no route for " + c.Request.URL.Path,
	})
}

func methodNotAllowed(c *gin.Context) {
	writeProblem(c, Problem{
		Type:   ProblemTypeMethodNotAllowed,
		Title:  "Method Not Allowed",
		Status: http.StatusMethodNotAllowed,
		Detail: c.Request.Method + " is not supported on " + c.Request.URL.Path,
	})
}

func sourceUnavailable(c *gin.Context, detail string) {
	writeProblem(c, Problem{
		Type:   ProblemTypeSourceUnavailable,
		Title:  "Catalog Unavailable",
		Status: http.StatusServiceUnavailable,
		Detail: detail,
	})
}

func internalError(c *gin.Context, detail string) {
	writeProblem(c, Problem{
		Type:   ProblemTypeInternal,
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: detail,
	})
}

func rateLimited(c *gin.Context, detail string) {
	writeProblem(c, Problem{
		Type:   ProblemTypeRateLimited,
		Title:  "Too Many Requests",
		Status: http.StatusTooManyRequests,
		Detail: detail,
	})
}
