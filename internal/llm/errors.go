package llm

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/portfolio/backend/pkg/circuitbreaker"
)

var (
	ErrMissingAPIKey   = errors.New("inference API key is not configured")
	ErrUnauthorized    = errors.New("inference API rejected credentials")
	ErrRateLimited     = errors.New("inference API rate limit exceeded")
	ErrModelLoading    = errors.New("model is loading")
	ErrUpstream        = errors.New("inference API error")
	ErrInvalidResponse = errors.New("invalid response format from inference API")
	ErrUnexpectedShape = errors.New("unexpected response shape from inference API")
	ErrNetwork         = errors.New("network error contacting inference API")
)

// UpstreamError is a non-2xx answer from the inference API. It unwraps to
// ErrUnauthorized, ErrRateLimited, ErrModelLoading or ErrUpstream.
type UpstreamError struct {
	StatusCode int
	Body       []byte
	// Details is a readable excerpt of Body.
	Details string
	kind    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %d", e.kind, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.kind
}

// statusError maps a non-2xx response onto the error taxonomy.
func statusError(raw *RawResponse) error {
	var kind error
	switch raw.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = ErrUnauthorized
	case http.StatusTooManyRequests:
		kind = ErrRateLimited
	case http.StatusServiceUnavailable:
		kind = ErrModelLoading
	default:
		kind = ErrUpstream
	}
	return &UpstreamError{
		StatusCode: raw.StatusCode,
		Body:       raw.Body,
		Details:    errorDetails(raw),
		kind:       kind,
	}
}

const maxDetailsLen = 500

// errorDetails renders an error body for logs and clients. Gateways in front
// of the inference API sometimes answer with an HTML page.
func errorDetails(raw *RawResponse) string {
	body := bytes.TrimSpace(raw.Body)
	if len(body) == 0 {
		return ""
	}

	text := string(body)
	if strings.Contains(raw.ContentType, "text/html") || bytes.HasPrefix(body, []byte("<")) {
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
			doc.Find("script, style").Remove()
			title := strings.TrimSpace(doc.Find("title").Text())
			bodyText := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
			switch {
			case title != "" && bodyText != "" && !strings.HasPrefix(bodyText, title):
				text = title + ": " + bodyText
			case bodyText != "":
				text = bodyText
			case title != "":
				text = title
			}
		}
	}

	return truncateRunes(text, maxDetailsLen)
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Kind groups errors the way callers react to them.
type Kind string

const (
	KindNone        Kind = ""
	KindTransient   Kind = "transient"
	KindCredentials Kind = "credentials"
	KindQuota       Kind = "quota"
	KindShape       Kind = "shape"
	KindNetwork     Kind = "network"
	KindUpstream    Kind = "upstream"
	KindUnavailable Kind = "unavailable"
)

func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrModelLoading):
		return KindTransient
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrMissingAPIKey):
		return KindCredentials
	case errors.Is(err, ErrRateLimited):
		return KindQuota
	case errors.Is(err, ErrInvalidResponse), errors.Is(err, ErrUnexpectedShape):
		return KindShape
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		return KindUnavailable
	default:
		return KindUpstream
	}
}
