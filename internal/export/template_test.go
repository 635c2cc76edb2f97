package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRegistry_Builtins(t *testing.T) {
	r := NewTemplateRegistry()

	for _, name := range []string{"whatsapp", "simple", "custom"} {
		tpl, err := r.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, tpl.Name)
	}

	_, err := r.Get("nope")
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestTemplate_CloneIsIndependent(t *testing.T) {
	r := NewTemplateRegistry()

	tpl, err := r.Get("whatsapp")
	require.NoError(t, err)

	clone := tpl.Clone("mine")
	clone.EditedSuffix = " [edited]"

	// the registry copy is untouched
	orig, err := r.Get("whatsapp")
	require.NoError(t, err)
	assert.Equal(t, " (edited)", orig.EditedSuffix)
	assert.Equal(t, "mine", clone.Name)
}

func TestTemplateRegistry_GetReturnsCopy(t *testing.T) {
	r := NewTemplateRegistry()

	tpl, _ := r.Get("whatsapp")
	tpl.MediaPlaceholder = "mutated"

	again, _ := r.Get("whatsapp")
	assert.Equal(t, "<Media omitted>", again.MediaPlaceholder)
}

func TestTemplateRegistry_RegisterFillsDefaults(t *testing.T) {
	r := NewTemplateRegistry()

	require.NoError(t, r.Register(Template{Name: "minimal", EditedSuffix: " ~"}))

	tpl, err := r.Get("minimal")
	require.NoError(t, err)
	assert.Equal(t, WhatsAppTemplate().MessageFormat, tpl.MessageFormat)
	assert.Equal(t, " ~", tpl.EditedSuffix)
}

func TestTemplateRegistry_RegisterRequiresName(t *testing.T) {
	r := NewTemplateRegistry()
	assert.Error(t, r.Register(Template{}))
}

func TestTemplateRegistry_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	content := `templates:
  - name: compact
    date_format: "15:04"
    message_format: "{sender_name}: {content}"
    include_header: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r := NewTemplateRegistry()
	require.NoError(t, r.LoadFile(path))

	tpl, err := r.Get("compact")
	require.NoError(t, err)
	assert.Equal(t, "15:04", tpl.DateFormat)
	assert.Equal(t, "{sender_name}: {content}", tpl.MessageFormat)
	assert.False(t, tpl.IncludeHeader)
}

func TestTemplateRegistry_LoadFileErrors(t *testing.T) {
	r := NewTemplateRegistry()

	assert.Error(t, r.LoadFile("/does/not/exist.yaml"))

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("templates: {not a list"), 0644))
	assert.Error(t, r.LoadFile(bad))
}
