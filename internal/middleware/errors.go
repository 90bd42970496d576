package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/YashwanthKamireddi/project-prerana/internal/infrastructure"
)

// Problem represents an RFC 7807 problem details object. Middleware
// rejections (panics, rate limits, timeouts) and router fallbacks respond
// with it so every error body the server emits shares one shape.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Trace  string `json:"trace_id,omitempty"`
}

// Render writes the problem as application/problem+json
func (p Problem) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	return json.NewEncoder(w).Encode(p)
}

// ProblemFromStatus creates a Problem from an HTTP status code
func ProblemFromStatus(status int, detail string, traceID string) Problem {
	var title, problemType string

	switch status {
	case http.StatusBadRequest:
		title = "Bad Request"
		problemType = "/errors/bad-request"
	case http.StatusUnauthorized:
		title = "Unauthorized"
		problemType = "/errors/unauthorized"
	case http.StatusForbidden:
		title = "Forbidden"
		problemType = "/errors/forbidden"
	case http.StatusNotFound:
		title = "Not Found"
		problemType = "/errors/not-found"
	case http.StatusMethodNotAllowed:
		title = "Method Not Allowed"
		problemType = "/errors/method-not-allowed"
	case http.StatusConflict:
		title = "Conflict"
		problemType = "/errors/conflict"
	case http.StatusRequestEntityTooLarge:
		title = "Payload Too Large"
		problemType = "/errors/payload-too-large"
	case http.StatusUnsupportedMediaType:
		title = "Unsupported Media Type"
		problemType = "/errors/unsupported-media-type"
	case http.StatusTooManyRequests:
		title = "Too Many Requests"
		problemType = "/errors/rate-limit-exceeded"
	case http.StatusInternalServerError:
		title = "Internal Server Error"
		problemType = "/errors/internal-server-error"
	case http.StatusServiceUnavailable:
		title = "Service Unavailable"
		problemType = "/errors/service-unavailable"
	case http.StatusGatewayTimeout:
		title = "Gateway Timeout"
		problemType = "/errors/gateway-timeout"
	default:
		title = http.StatusText(status)
		problemType = "/errors/unknown"
	}

	return Problem{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
		Trace:  traceID,
	}
}

// NotFound responds to unmatched routes with a problem document
func NotFound(w http.ResponseWriter, r *http.Request) {
	p := ProblemFromStatus(http.StatusNotFound,
		"no route for "+r.Method+" "+r.URL.Path,
		infrastructure.GetTraceID(r.Context()))
	_ = p.Render(w, r)
}

// MethodNotAllowed responds to known routes called with an unsupported verb
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	p := ProblemFromStatus(http.StatusMethodNotAllowed,
		r.Method+" is not supported on "+r.URL.Path,
		infrastructure.GetTraceID(r.Context()))
	_ = p.Render(w, r)
}
