package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, src string, ctx map[string]any) string {
	t.Helper()
	out, err := RenderTemplate(src, ctx)
	require.NoError(t, err)
	return out
}

func TestTemplateLiteral(t *testing.T) {
	assert.Equal(t, "plain text", render(t, "plain text", nil))
}

func TestTemplateVariable(t *testing.T) {
	ctx := map[string]any{"name": "Rincewind"}
	assert.Equal(t, "hello Rincewind!", render(t, "hello {name}!", ctx))
}

func TestTemplateDottedAccess(t *testing.T) {
	ctx := map[string]any{
		"self": map[string]any{"mood": "grumpy"},
	}
	assert.Equal(t, "feeling grumpy", render(t, "feeling {self.mood}", ctx))
}

func TestTemplateCallable(t *testing.T) {
	ctx := map[string]any{"when": func() any { return "noon" }}
	assert.Equal(t, "it is noon", render(t, "it is {when}", ctx))
}

func TestTemplateIf(t *testing.T) {
	src := "{if open}come in{else}closed{endif}"
	assert.Equal(t, "come in", render(t, src, map[string]any{"open": true}))
	assert.Equal(t, "closed", render(t, src, map[string]any{"open": false}))
}

func TestTemplateIfWithoutElse(t *testing.T) {
	src := "door{if locked} (locked){endif}"
	assert.Equal(t, "door (locked)", render(t, src, map[string]any{"locked": true}))
	assert.Equal(t, "door", render(t, src, map[string]any{"locked": ""}))
}

func TestTemplateFor(t *testing.T) {
	ctx := map[string]any{"items": []string{"a", "b", "c"}}
	assert.Equal(t, " a b c", render(t, "{for x in items} {x}{endfor}", ctx))
}

func TestTemplateNested(t *testing.T) {
	ctx := map[string]any{
		"items": []any{
			map[string]any{"name": "sword", "magic": true},
			map[string]any{"name": "rock", "magic": false},
		},
	}
	src := "{for it in items}{it.name}{if it.magic}*{endif} {endfor}"
	assert.Equal(t, "sword* rock ", render(t, src, ctx))
}

func TestTemplateColors(t *testing.T) {
	out := render(t, "{blue}water{normal}", ColorEnv())
	assert.Equal(t, "\033[34mwater\033[0m", out)
}

func TestTemplateErrors(t *testing.T) {
	for _, src := range []string{
		"{missing}",
		"{if x}no endif",
		"{endif}",
		"{for x in}{endfor}",
		"broken {",
	} {
		_, err := RenderTemplate(src, map[string]any{})
		assert.Error(t, err, "template %q should not render", src)
	}
}
