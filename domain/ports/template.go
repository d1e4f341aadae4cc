package ports

// TemplateEngine renders a theme against a profile document.
type TemplateEngine interface {
	// Render decodes profileJSON, compiles theme and executes it.
	// Errors are domain errors (DecodeError, CompileError, EvaluateError).
	Render(profileJSON, theme []byte) (string, error)
}

// ProfileValidator validates a profile document at the wire level before
// it is handed to a renderer.
type ProfileValidator interface {
	Validate(profileJSON []byte) error
}
