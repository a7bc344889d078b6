package picker

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func testOptions() []Option {
	return []Option{
		{Label: "St. Mary", Value: "h1"},
		{Label: "General", Value: "h2"},
		{Label: "Children's", Value: "h3"},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPicker_SetSelected(t *testing.T) {
	m := New("Hospital", testOptions())

	m = m.SetSelected(2)
	opt, ok := m.Selected()
	require.True(t, ok)
	require.Equal(t, "h3", opt.Value)

	m = m.SetSelected(10)
	opt, _ = m.Selected()
	require.Equal(t, "h3", opt.Value, "out of range index is ignored")

	m = m.SetSelected(-1)
	opt, _ = m.Selected()
	require.Equal(t, "h3", opt.Value)
}

func TestPicker_Navigation(t *testing.T) {
	m := New("Hospital", testOptions())

	m, _ = m.Update(runes("j"))
	m, _ = m.Update(runes("j"))
	m, _ = m.Update(runes("j"))
	opt, _ := m.Selected()
	require.Equal(t, "h3", opt.Value, "stops at the last option")

	m, _ = m.Update(runes("k"))
	opt, _ = m.Selected()
	require.Equal(t, "h2", opt.Value)
}

func TestPicker_EnterSelects(t *testing.T) {
	m := New("Hospital", testOptions()).SetSelected(1)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.Equal(t, SelectMsg{Option: Option{Label: "General", Value: "h2"}}, cmd())
}

func TestPicker_EscCancels(t *testing.T) {
	_, cmd := New("Hospital", testOptions()).Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.IsType(t, CancelMsg{}, cmd())
}

func TestPicker_EmptyEnterDoesNothing(t *testing.T) {
	m := New("Hospital", nil)

	_, ok := m.Selected()
	require.False(t, ok)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
	require.Contains(t, m.View(), "Nothing to choose from")
}

func TestPicker_ScrollsLongLists(t *testing.T) {
	var opts []Option
	for i := range 25 {
		opts = append(opts, Option{Label: fmt.Sprintf("Hospital %02d", i), Value: fmt.Sprint(i)})
	}
	m := New("Hospital", opts).SetSelected(20)

	view := m.View()
	require.Contains(t, view, "Hospital 20")
	require.NotContains(t, view, "Hospital 05")
	require.Contains(t, view, "21/25")
}

func TestFindIndexByValue(t *testing.T) {
	require.Equal(t, 2, FindIndexByValue(testOptions(), "h3"))
	require.Equal(t, 0, FindIndexByValue(testOptions(), "missing"))
}
