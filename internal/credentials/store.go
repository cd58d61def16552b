// Package credentials holds user-supplied social handles between runs of a
// verification flow. Stores are keyed by the fixed provider storage keys
// (github_username, twitter_username, linkedin_username) and scoped to a
// session rather than to a resume.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// Store is the transient credential store. Get returns "" for an absent
// handle; Set with an empty value removes it; Clear is idempotent.
type Store interface {
	Get(ctx context.Context, p types.Provider) (string, error)
	Set(ctx context.Context, p types.Provider, value string) error
	Clear(ctx context.Context) error
}

// Load reads every provider from the store. Handles that could be read are
// returned even when another provider fails.
func Load(ctx context.Context, s Store) (types.SocialHandles, error) {
	var (
		handles types.SocialHandles
		errs    []error
	)
	for _, p := range types.Providers {
		v, err := s.Get(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("get %s: %w", p.StorageKey(), err))
			continue
		}
		handles = handles.With(p, v)
	}
	return handles, errors.Join(errs...)
}

// Seed writes every non-empty handle in h to the store.
func Seed(ctx context.Context, s Store, h types.SocialHandles) error {
	for _, p := range types.Providers {
		v := h.Normalized().Get(p)
		if v == "" {
			continue
		}
		if err := s.Set(ctx, p, v); err != nil {
			return fmt.Errorf("set %s: %w", p.StorageKey(), err)
		}
	}
	return nil
}
