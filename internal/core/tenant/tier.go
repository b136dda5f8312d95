package tenant

// =============================================================================
// Tier
// =============================================================================

// Tier is a tenant's subscription tier. Tiers are ordered.
type Tier string

const (
	TierFree     Tier = "free"
	TierPro      Tier = "pro"
	TierMax      Tier = "max"
	TierLifetime Tier = "lifetime"
)

// tierRank orders tiers; higher rank unlocks more features.
var tierRank = map[Tier]int{
	TierFree:     0,
	TierPro:      1,
	TierMax:      2,
	TierLifetime: 3,
}

// Unlimited marks a limit with no upper bound.
const Unlimited = -1

// FreePostLimit is the number of posts a free tenant may own.
const FreePostLimit = 50

// Limits are the feature limits of a tier.
type Limits struct {
	MaxPosts     int  `json:"max_posts"` // Unlimited for no limit
	CustomDomain bool `json:"custom_domain"`
}

// IsValid checks if the tier is known.
func (t Tier) IsValid() bool {
	_, ok := tierRank[t]
	return ok
}

// AtLeast reports whether t grants access to features requiring required.
// Unknown tiers never grant access.
func (t Tier) AtLeast(required Tier) bool {
	have, ok := tierRank[t]
	if !ok {
		return false
	}
	need, ok := tierRank[required]
	if !ok {
		return false
	}
	return have >= need
}

// Limits returns the feature limits for the tier. Unknown tiers get free limits.
func (t Tier) Limits() Limits {
	if !t.AtLeast(TierPro) {
		return Limits{MaxPosts: FreePostLimit, CustomDomain: false}
	}
	return Limits{MaxPosts: Unlimited, CustomDomain: true}
}

// CanCreatePost reports whether a tenant on tier t owning existing posts may
// create another one.
func (t Tier) CanCreatePost(existing int) bool {
	limit := t.Limits().MaxPosts
	return limit == Unlimited || existing < limit
}
