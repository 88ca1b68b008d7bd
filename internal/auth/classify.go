package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Mode tells the responder how a request expects failures to be reported.
type Mode int

const (
	// ModeInteractive is a browser navigation; failures become redirects with a flash.
	ModeInteractive Mode = iota
	// ModeAPI is a programmatic client; failures become a status code and a JSON body.
	ModeAPI
)

func (m Mode) String() string {
	if m == ModeAPI {
		return "api"
	}
	return "interactive"
}

// RequestInfo holds the request attributes classification looks at.
type RequestInfo struct {
	Path          string
	Accept        string
	ContentType   string
	RequestedWith string
}

// Classifier decides between API and interactive handling.
type Classifier struct {
	apiPrefix string
}

// NewClassifier returns a classifier treating every path under apiPrefix as API traffic.
func NewClassifier(apiPrefix string) Classifier {
	return Classifier{apiPrefix: strings.TrimRight(apiPrefix, "/")}
}

// Classify applies, in order: path prefix, Accept header, JSON body, XMLHttpRequest marker.
// Anything else is interactive.
func (cl Classifier) Classify(info RequestInfo) Mode {
	if cl.apiPrefix != "" && hasPathPrefix(info.Path, cl.apiPrefix) {
		return ModeAPI
	}
	if strings.Contains(strings.ToLower(info.Accept), "json") {
		return ModeAPI
	}
	if isJSONContentType(info.ContentType) {
		return ModeAPI
	}
	if strings.EqualFold(info.RequestedWith, "XMLHttpRequest") {
		return ModeAPI
	}
	return ModeInteractive
}

// ClassifyCtx classifies a live fiber request.
func (cl Classifier) ClassifyCtx(c *fiber.Ctx) Mode {
	return cl.Classify(RequestInfo{
		Path:          c.Path(),
		Accept:        c.Get(fiber.HeaderAccept),
		ContentType:   c.Get(fiber.HeaderContentType),
		RequestedWith: c.Get(fiber.HeaderXRequestedWith),
	})
}

func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func isJSONContentType(ct string) bool {
	mediaType := strings.TrimSpace(strings.ToLower(strings.SplitN(ct, ";", 2)[0]))
	return mediaType == fiber.MIMEApplicationJSON || strings.HasSuffix(mediaType, "+json")
}
