package textconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvert(t *testing.T) {
	got := Convert(Request{Text: "alpha\nbeta\ngamma", Separator: ","})
	assert.Equal(t, "alpha,\nbeta,\ngamma", got)
}

func TestConvertTrimsAndDropsEmptyLines(t *testing.T) {
	got := Convert(Request{Text: "  alpha  \n\n   \nbeta\n", Separator: ","})
	assert.Equal(t, "alpha,\nbeta", got)
}

func TestConvertWrapAndUppercase(t *testing.T) {
	got := Convert(Request{Text: "nike\nadidas", Separator: ",", WrapChar: `'`, Uppercase: true})
	assert.Equal(t, "'NIKE',\n'ADIDAS'", got)
}

func TestConvertEmptyInput(t *testing.T) {
	assert.Empty(t, Convert(Request{Text: "   \n  ", Separator: ","}))
}

func TestConvertSingleLineHasNoSeparator(t *testing.T) {
	assert.Equal(t, "alpha", Convert(Request{Text: "alpha", Separator: ","}))
}
