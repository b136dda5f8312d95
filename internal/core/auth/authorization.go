package auth

import (
	"fmt"

	"github.com/pintim/pint/internal/core/content"
	"github.com/pintim/pint/internal/core/tenant"
)

// =============================================================================
// Session Authorization
// =============================================================================

// RequireAuthentication checks if the context is authenticated.
// Returns (true, "") if authenticated, or (false, "authentication required") if not.
func RequireAuthentication(ctx Context) (bool, string) {
	if !ctx.Authenticated {
		return false, "authentication required"
	}
	return true, ""
}

// RequireTenant checks that the caller has completed onboarding.
func RequireTenant(ctx Context) (bool, string) {
	if ok, reason := RequireAuthentication(ctx); !ok {
		return false, reason
	}
	if ctx.TenantID == "" {
		return false, "onboarding not completed"
	}
	return true, ""
}

// =============================================================================
// Content Authorization
// =============================================================================

// CanManageTenant checks if the caller owns the tenant.
func CanManageTenant(ctx Context, tenantID string) bool {
	return ctx.Onboarded() && ctx.TenantID == tenantID
}

// CanManagePost checks if the caller owns the post's tenant.
func CanManagePost(ctx Context, post content.Post) bool {
	return CanManageTenant(ctx, post.TenantID)
}

// CanManagePage checks if the caller owns the page's tenant.
func CanManagePage(ctx Context, page content.Page) bool {
	return CanManageTenant(ctx, page.TenantID)
}

// =============================================================================
// Tier Authorization
// =============================================================================

// CanCreatePost checks the tier's post limit against the tenant's current count.
// Returns (true, "") if allowed, or (false, reason) if not allowed.
func CanCreatePost(ctx Context, currentPostCount int) (bool, string) {
	if ok, reason := RequireTenant(ctx); !ok {
		return false, reason
	}
	tier := ctx.Tier
	if !tier.IsValid() {
		tier = tenant.TierFree
	}
	if !tier.CanCreatePost(currentPostCount) {
		return false, fmt.Sprintf("plan limit reached: max %d posts on the %s tier", tier.Limits().MaxPosts, tier)
	}
	return true, ""
}

// CanUseTier checks if the caller's tier meets the required tier.
func CanUseTier(ctx Context, required tenant.Tier) bool {
	return ctx.Onboarded() && ctx.Tier.AtLeast(required)
}
