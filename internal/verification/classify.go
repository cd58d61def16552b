package verification

import (
	"strings"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// Classification names the kind of provider failure behind a failed job.
type Classification string

const (
	ClassGitHubRateLimit  Classification = "github-rate-limit"
	ClassTwitterFailure   Classification = "twitter-api-failure"
	ClassLinkedInFailure  Classification = "linkedin-api-failure"
	ClassInvalidUsername  Classification = "invalid-username"
	ClassMalformedPayload Classification = "malformed-error-payload"
	ClassGeneric          Classification = "generic"
)

// Rule pairs a predicate over an error payload with the classification it implies.
type Rule struct {
	Class Classification
	Match func(p types.ErrorPayload) bool
}

// DefaultRules is evaluated top to bottom; the first match wins.
//
// The backend's error text is not a contract. These rules key off the
// wording it produces today and need revisiting if the backend starts
// sending structured error codes.
var DefaultRules = []Rule{
	{Class: ClassGitHubRateLimit, Match: containsFold("rate limit")},
	{Class: ClassTwitterFailure, Match: containsFold("twitter")},
	{Class: ClassLinkedInFailure, Match: containsFold("linkedin")},
	{Class: ClassInvalidUsername, Match: containsFold("not found", "invalid username")},
	{Class: ClassMalformedPayload, Match: func(p types.ErrorPayload) bool {
		return p.Structured || containsFold("[object object]")(p)
	}},
}

func containsFold(needles ...string) func(types.ErrorPayload) bool {
	return func(p types.ErrorPayload) bool {
		haystack := strings.ToLower(p.Text)
		for _, n := range needles {
			if strings.Contains(haystack, n) {
				return true
			}
		}
		return false
	}
}

// Classify returns the first matching rule's classification, or ClassGeneric.
func Classify(p types.ErrorPayload, rules []Rule) Classification {
	for _, r := range rules {
		if r.Match(p) {
			return r.Class
		}
	}
	return ClassGeneric
}
