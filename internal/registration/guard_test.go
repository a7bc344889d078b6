package registration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/intakehq/intake/internal/mocks"
	"github.com/intakehq/intake/internal/nav"
)

func TestGuard_CleanFormLeavesImmediately(t *testing.T) {
	navigator := mocks.NewMockNavigator(t)
	navigator.EXPECT().Push(nav.Patients()).Return().Once()

	g := NewGuard(navigator, Form{})
	g.Observe(Form{})

	require.False(t, g.RequestExit())
	require.False(t, g.Confirming())
}

func TestGuard_DirtyFormAsksFirst(t *testing.T) {
	navigator := mocks.NewMockNavigator(t)

	g := NewGuard(navigator, Form{})
	g.Observe(Form{FirstName: "A"})

	require.True(t, g.Dirty())
	require.True(t, g.RequestExit())
	require.True(t, g.Confirming())
	navigator.AssertNotCalled(t, "Push", nav.Patients())

	g.DismissExit()
	require.False(t, g.Confirming())

	navigator.EXPECT().Push(nav.Patients()).Return().Once()
	require.True(t, g.RequestExit())
	g.ConfirmExit()
	require.False(t, g.Confirming())
}

func TestGuard_DirtyIsSticky(t *testing.T) {
	g := NewGuard(mocks.NewMockNavigator(t), Form{})

	g.Observe(Form{LastName: "L"})
	g.Observe(Form{})

	require.True(t, g.Dirty())
}
