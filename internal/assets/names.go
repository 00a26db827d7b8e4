package assets

// Built-in asset names.
const (
	// DefaultStyleName is the stylesheet inlined into every textbook.
	DefaultStyleName = "textbook"

	// DefaultTemplateName is the HTML scaffold the assembler executes.
	DefaultTemplateName = "textbook"
)

var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads an embedded stylesheet by name (without the .css extension).
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTemplate loads an embedded HTML template by name (without the .html extension).
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}
