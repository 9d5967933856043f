package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Equal(t, "Gelora Bung Karno", Text(`<b>Gelora Bung Karno</b><script>alert(1)</script>`))
	assert.Equal(t, "Lari & Jalan", Text("  Lari & Jalan "))
	assert.Equal(t, "", Text(""))
}

func TestOptionalText(t *testing.T) {
	assert.Nil(t, OptionalText(nil))
	blank := "<p> </p>"
	assert.Nil(t, OptionalText(&blank))
	desc := "<i>Annual</i> city run"
	out := OptionalText(&desc)
	if assert.NotNil(t, out) {
		assert.Equal(t, "Annual city run", *out)
	}
}
