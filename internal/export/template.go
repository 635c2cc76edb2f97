package export

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Template is a named, immutable set of formatting rules. Use Clone to
// derive a customizable copy; the built-in registry is never mutated.
type Template struct {
	Name string `yaml:"name"`

	// DateFormat is a Go reference-time layout.
	DateFormat string `yaml:"date_format"`

	// MessageFormat supports {date_str}, {sender_name}, {content} and
	// {edited_suffix} placeholders.
	MessageFormat string `yaml:"message_format"`

	// HeaderFormat supports {date_str} and {chat_title} placeholders.
	HeaderFormat  string `yaml:"header_format"`
	IncludeHeader bool   `yaml:"include_header"`

	MediaPlaceholder   string `yaml:"media_placeholder"`
	UnknownPlaceholder string `yaml:"unknown_placeholder"`
	ErrorPlaceholder   string `yaml:"error_placeholder"`
	EditedSuffix       string `yaml:"edited_suffix"`
}

// Clone returns a copy of the template under a new name. The copy is
// independent: editing it never affects the registry.
func (t Template) Clone(name string) Template {
	t.Name = name
	return t
}

// WhatsAppTemplate is the default output format, matching the layout
// WhatsApp uses for its own chat exports.
func WhatsAppTemplate() Template {
	return Template{
		Name:          "whatsapp",
		DateFormat:    "02/01/06, 15:04",
		MessageFormat: "{date_str} - {sender_name}: {content}{edited_suffix}",
		HeaderFormat: "{date_str} - Messages and calls are end-to-end encrypted. " +
			"No one outside of this chat, not even WhatsApp, can read or listen to them. " +
			"Tap to learn more.",
		IncludeHeader:      true,
		MediaPlaceholder:   "<Media omitted>",
		UnknownPlaceholder: "<Message>",
		ErrorPlaceholder:   "<Message format error>",
		EditedSuffix:       " (edited)",
	}
}

// SimpleTemplate is a minimal headerless format with ISO dates.
func SimpleTemplate() Template {
	return Template{
		Name:               "simple",
		DateFormat:         "2006-01-02 15:04",
		MessageFormat:      "[{date_str}] {sender_name}: {content}{edited_suffix}",
		HeaderFormat:       "--- {chat_title} ({date_str}) ---",
		IncludeHeader:      false,
		MediaPlaceholder:   "[media]",
		UnknownPlaceholder: "[message]",
		ErrorPlaceholder:   "[unreadable message]",
		EditedSuffix:       " *",
	}
}

// TemplateRegistry holds the named templates available to an export
// run. Lookups return copies, so callers can never mutate a registered
// template in place.
type TemplateRegistry struct {
	templates map[string]Template
}

// NewTemplateRegistry returns a registry seeded with the built-in
// templates, plus a "custom" entry cloned from the default.
func NewTemplateRegistry() *TemplateRegistry {
	r := &TemplateRegistry{templates: make(map[string]Template)}
	for _, t := range []Template{WhatsAppTemplate(), SimpleTemplate()} {
		r.templates[t.Name] = t
	}
	r.templates["custom"] = WhatsAppTemplate().Clone("custom")
	return r
}

// Get returns the named template.
func (r *TemplateRegistry) Get(name string) (Template, error) {
	t, ok := r.templates[name]
	if !ok {
		return Template{}, &ConfigError{Field: "template", Msg: fmt.Sprintf("unknown template %q", name)}
	}
	return t, nil
}

// Names lists the registered template names.
func (r *TemplateRegistry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}

// Register adds or replaces a template. Empty fields are filled from
// the default template so a partial definition stays usable.
func (r *TemplateRegistry) Register(t Template) error {
	if t.Name == "" {
		return &ConfigError{Field: "template", Msg: "template has no name"}
	}
	base := WhatsAppTemplate()
	if t.DateFormat == "" {
		t.DateFormat = base.DateFormat
	}
	if t.MessageFormat == "" {
		t.MessageFormat = base.MessageFormat
	}
	if t.HeaderFormat == "" {
		t.HeaderFormat = base.HeaderFormat
	}
	if t.MediaPlaceholder == "" {
		t.MediaPlaceholder = base.MediaPlaceholder
	}
	if t.UnknownPlaceholder == "" {
		t.UnknownPlaceholder = base.UnknownPlaceholder
	}
	if t.ErrorPlaceholder == "" {
		t.ErrorPlaceholder = base.ErrorPlaceholder
	}
	r.templates[t.Name] = t
	return nil
}

// templatesFile is the YAML shape of a user template override file.
type templatesFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadFile merges user-defined templates from a YAML file into the
// registry.
func (r *TemplateRegistry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Field: "templates file", Msg: err.Error()}
	}
	var file templatesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return &ConfigError{Field: "templates file", Msg: fmt.Sprintf("parse %s: %v", path, err)}
	}
	for _, t := range file.Templates {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
