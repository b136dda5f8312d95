package api

import (
	"net/http"

	"github.com/pintim/pint/internal/shell/api/openapi"
	"github.com/pintim/pint/internal/shell/tenancy"
)

// newOpenAPI describes the routes served by Routes.
func newOpenAPI() *openapi.Generator {
	gen := openapi.NewGenerator(
		openapi.WithTitle("Pint API"),
		openapi.WithVersion("1.0.0"),
		openapi.WithDescription("Tenant onboarding and content management for Pint blogs"),
	)

	gen.RegisterResource(openapi.ResourceInfo{
		Name:           "posts",
		Model:          PostResponse{},
		Create:         CreatePostRequest{},
		Update:         UpdatePostRequest{},
		SupportsDelete: true,
		Actions:        []string{"publish"},
		Filters:        []string{"status"},
	})
	gen.RegisterResource(openapi.ResourceInfo{
		Name:           "pages",
		Model:          PageResponse{},
		Create:         CreatePageRequest{},
		Update:         UpdatePageRequest{},
		SupportsDelete: true,
		Actions:        []string{"publish"},
		Filters:        []string{"status"},
	})

	for _, op := range []openapi.OperationInfo{
		{
			Method: http.MethodGet, Path: "/health", OperationID: "health",
			Summary: "Liveness probe", Tag: "Health", Response: HealthResponse{},
		},
		{
			Method: http.MethodGet, Path: "/ready", OperationID: "ready",
			Summary: "Readiness probe", Tag: "Health", Response: HealthResponse{},
		},
		{
			Method: http.MethodGet, Path: "/api/onboarding/check-subdomain", OperationID: "checkSubdomain",
			Summary: "Check whether a subdomain can be claimed", Tag: "Onboarding",
			Query: []string{"subdomain"}, Response: AvailabilityResponse{},
		},
		{
			Method: http.MethodGet, Path: "/api/onboarding/reserved", OperationID: "reservedNames",
			Summary: "List subdomains no blog may claim", Tag: "Onboarding",
			Response: ReservedNamesResponse{},
		},
		{
			Method: http.MethodGet, Path: "/api/settings", OperationID: "getSettings",
			Summary: "Read the blog settings", Tag: "Settings",
			Response: SettingsResponse{},
		},
		{
			Method: http.MethodPatch, Path: "/api/settings", OperationID: "updateSettings",
			Summary: "Merge changes into the blog settings", Tag: "Settings",
			Request: UpdateSettingsRequest{}, Response: SettingsResponse{},
		},
		{
			Method: http.MethodGet, Path: "/api/widgets", OperationID: "listWidgets",
			Summary: "List the blog's widgets by display order", Tag: "Widgets",
			Response: ListWidgetsResponse{},
		},
		{
			Method: http.MethodPatch, Path: "/api/widgets", OperationID: "reorderWidgets",
			Summary: "Reorder several widgets at once", Tag: "Widgets",
			Request: ReorderWidgetsRequest{}, Response: ListWidgetsResponse{},
		},
		{
			Method: http.MethodPatch, Path: "/api/widgets/{id}", OperationID: "updateWidget",
			Summary: "Enable, configure or move one widget", Tag: "Widgets",
			Request: UpdateWidgetRequest{}, Response: ManagedWidgetResponse{},
		},
		{
			Method: http.MethodPost, Path: "/api/onboarding/complete", OperationID: "completeOnboarding",
			Summary: "Claim a subdomain and create the blog", Tag: "Onboarding",
			Request: CompleteOnboardingRequest{}, Response: OnboardingResponse{}, Status: http.StatusCreated,
		},
		{
			Method: http.MethodGet, Path: "/api/auth/onboarding-status", OperationID: "onboardingStatus",
			Summary: "Report the caller's onboarding state", Tag: "Onboarding",
			Response: tenancy.OnboardingStatus{},
		},
		{
			Method: http.MethodPost, Path: "/api/webhooks/account", OperationID: "accountWebhook",
			Summary: "Receive signed account lifecycle events", Tag: "Webhooks",
			Response: SuccessResponse{},
		},
	} {
		gen.RegisterOperation(op)
	}

	return gen
}
