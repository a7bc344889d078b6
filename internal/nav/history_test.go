package nav

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistory_PushReplaceBack(t *testing.T) {
	h := NewHistory(Patients())
	var seen []string
	h.OnChange(func(path string) { seen = append(seen, path) })

	h.Push(RegisterPatient())
	require.Equal(t, "/patients/new", h.Current())
	require.Equal(t, 2, h.Len())

	h.Replace(Patients())
	require.Equal(t, "/patients", h.Current())
	require.Equal(t, 2, h.Len(), "replace keeps depth")

	require.True(t, h.Back())
	require.Equal(t, "/patients", h.Current())
	require.False(t, h.Back(), "cannot go back past the root")

	require.Equal(t, []string{"/patients/new", "/patients", "/patients"}, seen)
}

func TestURLs(t *testing.T) {
	require.Equal(t, "/patients", Patients())
	require.Equal(t, "/patients/new", RegisterPatient())
	require.Equal(t, "/patients/p%2F1", Patient("p/1"))
}

func TestParsePatient(t *testing.T) {
	id, ok := ParsePatient(Patient("p/1"))
	require.True(t, ok)
	require.Equal(t, "p/1", id)

	for _, path := range []string{Patients(), RegisterPatient(), "/patients/", "/hospitals/h1", "/patients/p1/edit"} {
		_, ok := ParsePatient(path)
		require.False(t, ok, path)
	}
}
