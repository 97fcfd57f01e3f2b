package scanner

// Queries capture function-like declarations per language. @def spans the
// whole declaration and @name its identifier.
var Queries = map[string]string{
	"go": `
		(function_declaration name: (identifier) @name) @def
		(method_declaration name: (field_identifier) @name) @def
	`,
	"python": `
		(function_definition name: (identifier) @name) @def
	`,
	"javascript": `
		(function_declaration name: (identifier) @name) @def
		(generator_function_declaration name: (identifier) @name) @def
		(method_definition name: (property_identifier) @name) @def
		(variable_declarator
			name: (identifier) @name
			value: [(arrow_function) (function_expression)]) @def
	`,
	"typescript": `
		(function_declaration name: (identifier) @name) @def
		(method_definition name: (property_identifier) @name) @def
		(variable_declarator
			name: (identifier) @name
			value: [(arrow_function) (function_expression)]) @def
	`,
}

// Extensions maps file extensions to Queries keys.
var Extensions = map[string]string{
	".go":  "go",
	".py":  "python",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
	".ts":  "typescript",
	".tsx": "tsx",
}
