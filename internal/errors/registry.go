package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (E001-E099)
	// ============================================

	"E001": {
		Category: CategoryRuntime,
		Message:  "Runtime disposed",
		Detail:   "The reactive runtime has been disposed. Signals still work as plain values but no effect will run again.",
		DocURL:   "https://msig.dev/docs/errors/E001",
	},
	"E005": {
		Category: CategoryRuntime,
		Message:  "Scope disposed",
		Detail:   "An effect was created under a scope that has already been disposed. It ran once and will not be notified again.",
		DocURL:   "https://msig.dev/docs/errors/E005",
	},
	"E006": {
		Category: CategoryRuntime,
		Message:  "Effect cascade depth exceeded",
		Detail:   "A signal write triggered a chain of effects nested deeper than the runtime allows. This usually means two effects write to signals the other reads.",
		DocURL:   "https://msig.dev/docs/errors/E006",
	},
	"E007": {
		Category: CategoryResource,
		Message:  "Resource fetch failed",
		Detail:   "The resource fetcher returned an error.",
		DocURL:   "https://msig.dev/docs/errors/E007",
	},
	"E008": {
		Category: CategoryResource,
		Message:  "Object read failed",
		Detail:   "The object store returned an error or the object body could not be read.",
		DocURL:   "https://msig.dev/docs/errors/E008",
	},
	"E009": {
		Category: CategoryRuntime,
		Message:  "Task panicked",
		Detail:   "A task posted to the runtime queue panicked. The panic was recovered and the queue keeps running.",
		DocURL:   "https://msig.dev/docs/errors/E009",
	},

	// ============================================
	// Config Errors (E120-E149)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid msig.json",
		Detail:   "The configuration file could not be read or parsed.",
		DocURL:   "https://msig.dev/docs/errors/E120",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range.",
		DocURL:   "https://msig.dev/docs/errors/E122",
	},
	"E141": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No msig.json was found in the given directory.",
		DocURL:   "https://msig.dev/docs/errors/E141",
	},

	// ============================================
	// Transport Errors (E200-E219)
	// ============================================

	"E200": {
		Category: CategoryTransport,
		Message:  "Unknown store",
		Detail:   "No store is published under this name.",
		DocURL:   "https://msig.dev/docs/errors/E200",
	},
	"E201": {
		Category: CategoryTransport,
		Message:  "Store is read-only",
		Detail:   "The store was published without a writer, so it cannot be set over HTTP.",
		DocURL:   "https://msig.dev/docs/errors/E201",
	},
	"E202": {
		Category: CategoryTransport,
		Message:  "Runtime unavailable",
		Detail:   "The runtime loop did not pick up the request before the deadline.",
		DocURL:   "https://msig.dev/docs/errors/E202",
	},
	"E203": {
		Category: CategoryTransport,
		Message:  "Invalid store value",
		Detail:   "The request body could not be decoded into the store's value type.",
		DocURL:   "https://msig.dev/docs/errors/E203",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
