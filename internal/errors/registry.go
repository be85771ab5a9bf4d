package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Usage Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryUsage,
		Message:  "Hook called outside component render",
		Detail:   "OnMounted, OnUnmounted, Provide and Inject resolve against the instance being rendered and may only be called synchronously from a component's setup function.",
	},
	"E002": {
		Category: CategoryUsage,
		Message:  "Component without setup function",
		Detail:   "A component definition must carry a non-nil setup function.",
	},
	"E003": {
		Category: CategoryUsage,
		Message:  "Root already unmounted",
		Detail:   "The tree was torn down; create a new root to render again.",
	},
	"E004": {
		Category:   CategoryUsage,
		Message:    "Key is not comparable",
		Detail:     "A key prop holding a slice, map or func cannot identify a child; the element is matched by position instead.",
		Suggestion: "Use a string, number or other comparable value as the key.",
	},

	// ============================================
	// Structural Errors (E020-E029)
	// ============================================

	"E020": {
		Category: CategoryStructural,
		Message:  "Host parent not found",
		Detail:   "No ancestor of the instance has a realized host node to insert into.",
	},
	"E021": {
		Category: CategoryStructural,
		Message:  "Instance has neither element nor host node",
		Detail:   "Every instance except the synthetic root must be bound to an element.",
	},

	// ============================================
	// Listener Errors (E030-E039)
	// ============================================

	"E030": {
		Category: CategoryListener,
		Message:  "Lifecycle listener panicked",
		Detail:   "A mount, unmount, disposer or watcher callback panicked. The remaining callbacks of the batch still ran.",
	},

	// ============================================
	// Remote Errors (E040-E049)
	// ============================================

	"E040": {
		Category: CategoryRemote,
		Message:  "Event target not found",
		Detail:   "The event names a node that is not mounted or carries no handler for the event.",
	},
	"E041": {
		Category: CategoryRemote,
		Message:  "Unsupported event handler",
		Detail:   "Event props must be func(), func(remote.Event) or func(string).",
	},
	"E042": {
		Category: CategoryRemote,
		Message:  "Malformed frame",
	},

	// ============================================
	// Config Errors (E050-E059)
	// ============================================

	"E050": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No arbor.json or arbor.yaml was found.",
	},
	"E051": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The configuration file could not be parsed.",
	},
	"E052": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
	},

	// ============================================
	// Export Errors (E060-E069)
	// ============================================

	"E060": {
		Category: CategoryExport,
		Message:  "Export target not configured",
		Detail:   "An export bucket must be set in the configuration or on the command line.",
	},
	"E061": {
		Category: CategoryExport,
		Message:  "Export upload failed",
	},

	// ============================================
	// CLI Errors (E070-E079)
	// ============================================

	"E070": {
		Category: CategoryCLI,
		Message:  "Unknown demo application",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
