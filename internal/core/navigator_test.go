package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigateActivatesEveryKnownView(t *testing.T) {
	nav := NewNavigator()
	for _, view := range nav.Views() {
		require.True(t, nav.Navigate(view), "view %q should be navigable", view)
		assert.Equal(t, view, nav.Current())
		assert.Equal(t, "#"+view, nav.Fragment())
	}
}

func TestNavigateUnknownViewIsNoOp(t *testing.T) {
	nav := NewNavigator()
	require.True(t, nav.Navigate(ViewAbout))

	assert.False(t, nav.Navigate("pricing"))
	assert.Equal(t, ViewAbout, nav.Current())
}

func TestGoBackWalksHistory(t *testing.T) {
	nav := NewNavigator()
	nav.Navigate(ViewAbout)
	nav.Navigate(ViewAssistant)

	assert.Equal(t, ViewAbout, nav.GoBack())
	assert.Equal(t, ViewHome, nav.GoBack())
	// Bottom of the stack: a further back is a no-op.
	assert.Equal(t, ViewHome, nav.GoBack())
}

func TestNavigateToActiveViewDoesNotGrowHistory(t *testing.T) {
	nav := NewNavigator()
	nav.Navigate(ViewAbout)
	nav.Navigate(ViewAbout)

	assert.Equal(t, ViewHome, nav.GoBack())
}

func TestNavigateFragment(t *testing.T) {
	tests := []struct {
		fragment string
		want     string
	}{
		{"#support", ViewSupport},
		{"support", ViewSupport},
		{"", ViewHome},
		{"#", ViewHome},
		{"#no-such-view", ViewHome},
	}
	for _, tt := range tests {
		nav := NewNavigator()
		assert.Equal(t, tt.want, nav.NavigateFragment(tt.fragment), "fragment %q", tt.fragment)
	}
}
