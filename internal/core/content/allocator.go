package content

import (
	"context"
	"errors"
	"fmt"
)

// MaxSlugAttempts caps the number of probes one allocation may issue.
const MaxSlugAttempts = 500

// ErrSlugSpaceExhausted is returned when every candidate up to
// MaxSlugAttempts is taken. It is an internal error, not a user conflict.
var ErrSlugSpaceExhausted = errors.New("no free slug within attempt limit")

// SlugProber reports whether a resource of kind already uses slug within a
// tenant. A non-empty excludeID ignores that resource (the update-in-place case).
type SlugProber interface {
	SlugExists(ctx context.Context, kind Kind, tenantID, slug, excludeID string) (bool, error)
}

// SlugCandidate returns the n-th candidate for base: base itself for n <= 1,
// otherwise "base-n".
func SlugCandidate(base string, n int) string {
	if n <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// EnsureUniqueSlug returns the first of base, base-2, base-3, ... that no
// other resource of kind uses within tenantID.
//
// Probes are issued one at a time; each result decides the next candidate.
// The returned slug is only free at probe time. Callers must still treat a
// unique-constraint violation on write as a conflict.
func EnsureUniqueSlug(ctx context.Context, prober SlugProber, base, tenantID string, kind Kind, excludeID string) (string, error) {
	if base == "" {
		base = FallbackSlug
	}

	for n := 1; n <= MaxSlugAttempts; n++ {
		candidate := SlugCandidate(base, n)
		exists, err := prober.SlugExists(ctx, kind, tenantID, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s %q in tenant %s", ErrSlugSpaceExhausted, kind, base, tenantID)
}
