package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Provider identifies an external profile source checked during verification.
type Provider string

const (
	ProviderGitHub   Provider = "github"
	ProviderTwitter  Provider = "twitter"
	ProviderLinkedIn Provider = "linkedin"
)

// Providers lists every supported provider in display order.
var Providers = []Provider{ProviderGitHub, ProviderTwitter, ProviderLinkedIn}

// StorageKey returns the fixed credential store key for the provider.
func (p Provider) StorageKey() string {
	return string(p) + "_username"
}

// Label returns the provider name as shown to users.
func (p Provider) Label() string {
	switch p {
	case ProviderGitHub:
		return "GitHub"
	case ProviderTwitter:
		return "Twitter"
	case ProviderLinkedIn:
		return "LinkedIn"
	default:
		return string(p)
	}
}

// ParseProvider accepts either the provider name or its storage key.
func ParseProvider(s string) (Provider, error) {
	name := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "_username")
	for _, p := range Providers {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q (expected github, twitter or linkedin)", s)
}

// SocialHandles maps each provider to an optional username. It doubles as the
// request body of the verification endpoint.
type SocialHandles struct {
	GitHub   string `json:"github_username,omitempty" yaml:"github_username,omitempty" validate:"omitempty,max=100"`
	Twitter  string `json:"twitter_username,omitempty" yaml:"twitter_username,omitempty" validate:"omitempty,max=100"`
	LinkedIn string `json:"linkedin_username,omitempty" yaml:"linkedin_username,omitempty" validate:"omitempty,max=100"`
}

// Get returns the handle for a provider, or "" when absent.
func (h SocialHandles) Get(p Provider) string {
	switch p {
	case ProviderGitHub:
		return h.GitHub
	case ProviderTwitter:
		return h.Twitter
	case ProviderLinkedIn:
		return h.LinkedIn
	}
	return ""
}

// With returns a copy of h with the provider's handle replaced.
func (h SocialHandles) With(p Provider, value string) SocialHandles {
	switch p {
	case ProviderGitHub:
		h.GitHub = value
	case ProviderTwitter:
		h.Twitter = value
	case ProviderLinkedIn:
		h.LinkedIn = value
	}
	return h
}

// IsEmpty reports whether no provider has a handle.
func (h SocialHandles) IsEmpty() bool {
	for _, p := range Providers {
		if h.Get(p) != "" {
			return false
		}
	}
	return true
}

// Normalized trims whitespace from every handle.
func (h SocialHandles) Normalized() SocialHandles {
	var out SocialHandles
	for _, p := range Providers {
		out = out.With(p, strings.TrimSpace(h.Get(p)))
	}
	return out
}

// Validate validates the handle set using the validator.
func (h *SocialHandles) Validate() error {
	validate := validator.New()
	return validate.Struct(h)
}

// ResolveHandles merges the three handle sources per provider. A request-scoped
// override wins over a stored credential, which wins over the value extracted
// from the resume. Blank values count as absent.
func ResolveHandles(override, stored, extracted SocialHandles) SocialHandles {
	var resolved SocialHandles
	for _, p := range Providers {
		for _, candidate := range []string{override.Get(p), stored.Get(p), extracted.Get(p)} {
			if v := strings.TrimSpace(candidate); v != "" {
				resolved = resolved.With(p, v)
				break
			}
		}
	}
	return resolved
}

// Overlay returns h with every non-empty handle from top applied over it.
func (h SocialHandles) Overlay(top SocialHandles) SocialHandles {
	for _, p := range Providers {
		if v := strings.TrimSpace(top.Get(p)); v != "" {
			h = h.With(p, v)
		}
	}
	return h
}
