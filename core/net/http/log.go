package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// maxLoggedBody caps how much of a body diagnostic logging prints.
const maxLoggedBody = 4 << 10

func (c *Client) logRequest(req *http.Request, cl *call) {
	if !c.diagnostic {
		return
	}
	event := c.logger.Info().
		Str(MetaMethod, cl.method).
		Str(MetaPath, cl.path).
		Str("url", req.URL.String()).
		Bool("retry", cl.retried).
		Interface("headers", req.Header)
	c.bodyField(event, cl.body).Msg("http request")
}

func (c *Client) logResponse(resp *http.Response, cl *call, body []byte, start time.Time) {
	if !c.diagnostic {
		return
	}
	event := c.logger.Info().
		Str(MetaMethod, cl.method).
		Str(MetaPath, cl.path).
		Int(MetaStatus, resp.StatusCode).
		Dur("duration", c.now().Sub(start))
	c.bodyField(event, body).Msg("http response")
}

// bodyField adds the redacted body, as embedded JSON when it is valid JSON.
func (c *Client) bodyField(event *zerolog.Event, body []byte) *zerolog.Event {
	if len(body) == 0 {
		return event
	}
	if len(body) > maxLoggedBody {
		return event.Str("body", c.logger.Redact(string(body[:maxLoggedBody]))+"...").Int("body_size", len(body))
	}

	redacted := []byte(c.logger.Redact(string(body)))
	if json.Valid(redacted) {
		return event.RawJSON("body", redacted)
	}
	return event.Str("body", string(redacted))
}
