package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// ErrStillProcessing reports that the backend accepted the resume but has not
// finished with it yet. Callers retry after a delay.
var ErrStillProcessing = errors.New("backend: still processing")

// ErrEmptyResumeID is returned before any request is made for a blank id.
var ErrEmptyResumeID = errors.New("resume id is empty")

// Kind classifies a backend failure.
type Kind string

const (
	// KindNotFound is a 404 for the resume, verification or score.
	KindNotFound Kind = "not-found"
	// KindInvalidInput is a rejected request (400/422) that retrying will not fix.
	KindInvalidInput Kind = "invalid-input"
	// KindUpstream means the backend itself reported a processing failure.
	KindUpstream Kind = "upstream"
	// KindStatus is any other unexpected HTTP status.
	KindStatus Kind = "status"
	// KindNoResponse means the request was sent but nothing came back.
	KindNoResponse Kind = "no-response"
	// KindRequest means the request could not be built.
	KindRequest Kind = "request"
	// KindMalformed means the response body did not have the expected shape.
	KindMalformed Kind = "malformed"
	// KindCanceled means the caller's context ended first.
	KindCanceled Kind = "canceled"
)

// Error represents a failed backend call.
type Error struct {
	Op         string
	URL        string
	Kind       Kind
	StatusCode int
	// Detail is the best human-readable message the backend gave, if any.
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.URL != "" {
		sb.WriteString(" ")
		sb.WriteString(e.URL)
	}
	sb.WriteString(": ")
	sb.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the Kind of a backend error, or "" for anything else.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// transportError converts a resty execution error. A *url.Error from the HTTP
// round trip means no response arrived; URL parsing failures and anything else
// happened before the request left.
func transportError(op, endpoint string, err error) *Error {
	kind := KindRequest
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	case errors.As(err, &urlErr) && urlErr.Op != "parse":
		kind = KindNoResponse
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindNoResponse
	}
	return &Error{Op: op, URL: endpoint, Kind: kind, Cause: err}
}

// statusError builds the error for a non-2xx response.
func statusError(op string, resp *resty.Response) *Error {
	e := &Error{
		Op:         op,
		URL:        resp.Request.URL,
		StatusCode: resp.StatusCode(),
		Detail:     DetailMessage(resp.Body()),
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		e.Kind = KindNotFound
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		e.Kind = KindInvalidInput
	case code >= 500:
		e.Kind = KindUpstream
	default:
		e.Kind = KindStatus
	}
	return e
}

// DetailMessage extracts a readable message from an error body. FastAPI sends
// {"detail": "..."} or {"detail": [{"loc": [...], "msg": "..."}]}; other
// services use "error" or "message". Non-JSON bodies are returned trimmed.
func DetailMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	doc := gjson.ParseBytes(body)
	if doc.Type == gjson.String {
		return doc.String()
	}
	if doc.IsArray() {
		return joinValidationErrors(doc)
	}
	for _, key := range []string{"detail", "error", "message"} {
		v := doc.Get(key)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		switch {
		case v.IsArray():
			return joinValidationErrors(v)
		case v.IsObject():
			return compactJSON(v)
		default:
			return v.String()
		}
	}
	return ""
}

// joinValidationErrors flattens a validation error array into one line.
func joinValidationErrors(arr gjson.Result) string {
	var parts []string
	arr.ForEach(func(_, item gjson.Result) bool {
		msg := item.String()
		if item.IsObject() {
			msg = item.Get("msg").String()
			if msg == "" {
				msg = compactJSON(item)
			}
			if field := locationPath(item.Get("loc")); field != "" {
				msg = field + ": " + msg
			}
		}
		if msg = strings.TrimSpace(msg); msg != "" {
			parts = append(parts, msg)
		}
		return true
	})
	return strings.Join(parts, "; ")
}

// locationPath renders ["body", "message"] as "message".
func locationPath(loc gjson.Result) string {
	var segs []string
	loc.ForEach(func(_, seg gjson.Result) bool {
		if s := seg.String(); s != "body" && s != "" {
			segs = append(segs, s)
		}
		return true
	})
	return strings.Join(segs, ".")
}

func compactJSON(v gjson.Result) string {
	if c := v.Get("@ugly"); c.Exists() {
		return c.Raw
	}
	return v.Raw
}
