package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://vango.dev/docs/livestore/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (E001-E099)
	// ============================================

	"E001": {
		Category: CategoryRuntime,
		Message:  "Hook called outside component context",
		Detail:   "Effects and store bindings must be created inside a component's render function, where an owner is active.",
		DocURL:   docBase + "E001",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Hook order changed",
		Detail:   "Hooks must be called in the same order on every render. Do not call hooks conditionally or inside loops with a varying count.",
		DocURL:   docBase + "E002",
	},

	// ============================================
	// Validation Errors (E100-E199)
	// ============================================

	"E101": {
		Category: CategoryValidation,
		Message:  "Store value must be an object",
		Detail:   "A store wraps a map, slice, array or struct (or a pointer to one). Nil values and primitives cannot be observed.",
		DocURL:   docBase + "E101",
	},
	"E102": {
		Category: CategoryValidation,
		Message:  "Bind target is not a store",
		Detail:   "The first argument of Bind/UseStore must be a *Store returned by livestore.New.",
		DocURL:   docBase + "E102",
	},
	"E103": {
		Category: CategoryValidation,
		Message:  "Invalid observer option",
		Detail:   "Path and PathsFrom filters need a non-empty path, and Where expressions must compile to a boolean.",
		DocURL:   docBase + "E103",
	},
	"E104": {
		Category: CategoryValidation,
		Message:  "Invalid path",
		Detail:   "The path does not address an existing container in the observed value, or it addresses the root itself.",
		DocURL:   docBase + "E104",
	},
	"E105": {
		Category: CategoryValidation,
		Message:  "Type mismatch at path",
		Detail:   "The operation needs a different kind of value at this path, e.g. Push on something that is not an array.",
		DocURL:   docBase + "E105",
	},

	// ============================================
	// Config Errors (E200-E299)
	// ============================================

	"E201": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file or LIVESTORE_* environment could not be parsed or failed validation.",
		DocURL:   docBase + "E201",
	},

	// ============================================
	// CLI Errors (E300-E399)
	// ============================================

	"E301": {
		Category: CategoryCLI,
		Message:  "Invalid mutation script",
		Detail:   "Each script step needs a known op (set, delete, push, pop, shift, unshift, reverse, flush) and the fields that op uses.",
		DocURL:   docBase + "E301",
	},
	"E302": {
		Category: CategoryCLI,
		Message:  "Document not readable",
		Detail:   "The document file could not be read or is not valid YAML/JSON.",
		DocURL:   docBase + "E302",
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
