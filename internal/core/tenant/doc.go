// Package tenant contains the pure tenancy rules: the reserved-name registry,
// hostname parsing, identifier validation, tiers and the tenant record.
//
// Nothing in this package performs I/O. Lookups against the persistent store
// live in internal/shell/tenancy and compose the functions defined here.
//
// # Functions
//
//   - IsReserved: case-insensitive membership in the reserved-name set
//   - HostnameParser.ExtractTenantID: Host header -> tenant identifier
//   - ValidateIdentifier: format and reserved-name check for a claim
//   - NewTenant: build a tenant record with default settings
package tenant
