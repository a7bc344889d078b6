package markdown

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	require.Equal(t, `O\_Brien \*VIP\*`, Escape("O_Brien *VIP*"))
	require.Equal(t, "plain", Escape("plain"))
}

func TestCard(t *testing.T) {
	md := Card("Ada #1", []Field{
		{Label: "Phone", Value: "555-0101"},
		{Label: "Address", Value: "  "},
	})

	require.Contains(t, md, `## Ada \#1`)
	require.Contains(t, md, "| **Phone** | 555-0101 |")
	require.Contains(t, md, "| **Address** | - |")
}

func TestRender(t *testing.T) {
	r, err := New(60)
	require.NoError(t, err)
	require.Equal(t, 60, r.Width())

	out, err := r.Render(Card("Ada Lovelace", []Field{{Label: "Born", Value: "1980"}}))
	require.NoError(t, err)

	plain := ansi.Strip(out)
	require.Contains(t, plain, "Ada Lovelace")
	require.Contains(t, plain, "1980")
	require.NotContains(t, plain, "**")
	require.NotRegexp(t, `\n$`, out)
}
