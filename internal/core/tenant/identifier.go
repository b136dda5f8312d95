package tenant

import (
	"regexp"
	"strings"
)

// Availability reasons reported to callers. They are part of the API contract.
const (
	ReasonReserved      = "reserved"
	ReasonInvalidFormat = "invalid format"
	ReasonTaken         = "already taken"
)

// identifierPattern: 3-30 chars, alphanumeric ends, alphanumeric or hyphen inside.
var identifierPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,28}[a-z0-9]$`)

// Availability is the outcome of an availability check.
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Unavailable returns an Availability rejected for reason.
func Unavailable(reason string) Availability {
	return Availability{Available: false, Reason: reason}
}

// NormalizeIdentifier trims and lowercases a candidate identifier.
func NormalizeIdentifier(candidate string) string {
	return strings.ToLower(strings.TrimSpace(candidate))
}

// ValidateIdentifier performs the store-free part of an availability check.
// It returns the normalized identifier and an empty reason when the candidate
// may be looked up, or ReasonReserved / ReasonInvalidFormat otherwise.
//
// Example:
//
//	ValidateIdentifier("MyBlog") // "myblog", ""
//	ValidateIdentifier("www")    // "www", "reserved"
//	ValidateIdentifier("ab")     // "ab", "invalid format"
func ValidateIdentifier(candidate string) (normalized, reason string) {
	normalized = NormalizeIdentifier(candidate)
	if IsReserved(normalized) {
		return normalized, ReasonReserved
	}
	if !identifierPattern.MatchString(normalized) || strings.Contains(normalized, "--") {
		return normalized, ReasonInvalidFormat
	}
	return normalized, ""
}

// EvaluateAvailability combines the format check with the result of a
// directory lookup. taken is ignored when the format check fails.
func EvaluateAvailability(candidate string, taken bool) Availability {
	if _, reason := ValidateIdentifier(candidate); reason != "" {
		return Unavailable(reason)
	}
	if taken {
		return Unavailable(ReasonTaken)
	}
	return Availability{Available: true}
}
