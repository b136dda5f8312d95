package tenant

import (
	"sort"
	"strings"
)

// reservedNames are identifiers that can never be claimed by a tenant. They
// cover operational subdomains and paths the main application owns.
var reservedNames = map[string]struct{}{
	"www": {}, "app": {}, "api": {}, "admin": {}, "dashboard": {}, "blog": {},
	"help": {}, "support": {}, "mail": {}, "email": {}, "static": {}, "assets": {},
	"cdn": {}, "status": {}, "docs": {}, "dev": {}, "staging": {}, "test": {},
	"demo": {}, "beta": {}, "alpha": {}, "auth": {}, "login": {}, "signin": {},
	"signup": {}, "register": {}, "account": {}, "settings": {}, "billing": {},
	"pricing": {}, "about": {}, "contact": {}, "legal": {}, "privacy": {},
	"terms": {}, "faq": {},
}

// IsReserved reports whether candidate is a reserved name.
// Matching is exact after trimming and lowercasing.
func IsReserved(candidate string) bool {
	_, ok := reservedNames[strings.ToLower(strings.TrimSpace(candidate))]
	return ok
}

// ReservedNames returns the reserved set in sorted order.
func ReservedNames() []string {
	names := make([]string, 0, len(reservedNames))
	for name := range reservedNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
