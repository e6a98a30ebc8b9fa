package router

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/perpshield/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScreen struct {
	name    string
	inits   int
	updates int
	width   int
	height  int
}

func (s *fakeScreen) Init() tea.Cmd {
	s.inits++
	return nil
}

func (s *fakeScreen) Update(tea.Msg) (Screen, tea.Cmd) {
	s.updates++
	return s, nil
}

func (s *fakeScreen) View() string { return s.name }

func (s *fakeScreen) SetSize(width, height int) {
	s.width, s.height = width, height
}

func newTestRouter() (*Router, map[ui.Route]*fakeScreen) {
	built := make(map[ui.Route]*fakeScreen)
	factory := func(route ui.Route) Screen {
		if route == ui.RouteTradeModal {
			return nil
		}
		s := &fakeScreen{name: route.String()}
		built[route] = s
		return s
	}
	return New(ui.RouteHome, factory), built
}

func TestNavigatePushesAndUnwinds(t *testing.T) {
	r, built := newTestRouter()
	r.SetSize(120, 40)

	r.Update(ui.RouterMsg{To: ui.RouteTrade})
	r.Update(ui.RouterMsg{To: ui.RouteLogs})
	assert.Equal(t, 3, r.Depth())
	assert.Equal(t, ui.RouteLogs, r.CurrentRoute())
	assert.Equal(t, 120, built[ui.RouteLogs].width)

	// Navigating to an open route pops back to it instead of stacking a copy.
	r.Update(ui.RouterMsg{To: ui.RouteTrade})
	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, ui.RouteTrade, r.CurrentRoute())
	assert.Equal(t, 2, built[ui.RouteTrade].inits, "resumed screen is re-initialized")

	r.Update(ui.RouterMsg{To: ui.RouteHome})
	assert.Equal(t, 1, r.Depth())
	assert.False(t, r.CanGoBack())

	// Unavailable routes are ignored.
	r.Update(ui.RouterMsg{To: ui.RouteTradeModal})
	assert.Equal(t, 1, r.Depth())
}

func TestBackAndEscape(t *testing.T) {
	r, _ := newTestRouter()
	r.Update(ui.RouterMsg{To: ui.RoutePools})
	require.Equal(t, 2, r.Depth())

	r.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ui.RouteHome, r.CurrentRoute())

	// Escape on the root screen is forwarded to it.
	home := r.Current().(*fakeScreen)
	before := home.updates
	r.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 1, r.Depth())
	assert.Equal(t, before+1, home.updates)

	r.Update(ui.RouterMsg{To: ui.RouteLogs})
	r.Update(ui.BackMsg{})
	assert.Equal(t, ui.RouteHome, r.CurrentRoute())

	assert.Nil(t, r.Pop())
	assert.Equal(t, 1, r.Depth())
}

func TestPushReplaceClear(t *testing.T) {
	r, _ := newTestRouter()
	modal := &fakeScreen{name: "modal"}

	r.Push(ui.RouteTrade, &fakeScreen{name: "trade"})
	r.Push(ui.RouteTradeModal, modal)
	assert.Equal(t, "modal", r.View())
	assert.Equal(t, 1, modal.inits)

	r.Replace(ui.RoutePools, &fakeScreen{name: "pools"})
	assert.Equal(t, ui.RoutePools, r.CurrentRoute())
	assert.Equal(t, 3, r.Depth())

	r.Clear()
	assert.Equal(t, 1, r.Depth())
	assert.Equal(t, "Home", r.View())
}

func TestEmptyRouter(t *testing.T) {
	r := New(ui.RouteHome, func(ui.Route) Screen { return nil })

	assert.Nil(t, r.Init())
	assert.Equal(t, "No screen available", r.View())
	assert.Nil(t, r.Current())
	assert.Equal(t, ui.RouteHome, r.CurrentRoute())

	_, cmd := r.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
