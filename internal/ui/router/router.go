package router

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rovshanmuradov/perpshield/internal/ui"
)

// Screen represents a screen that can be navigated to
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// Factory builds the screen for a route. A nil screen means the route is
// not available and navigation is ignored.
type Factory func(route ui.Route) Screen

// Router manages navigation between screens using a stack-based approach
type Router struct {
	stack   []Screen
	routes  []ui.Route
	factory Factory
	width   int
	height  int
}

// New creates a new router with the initial screen
func New(initial ui.Route, factory Factory) *Router {
	r := &Router{factory: factory}
	if screen := factory(initial); screen != nil {
		r.stack = []Screen{screen}
		r.routes = []ui.Route{initial}
	}
	return r
}

// Init initializes the router
func (r *Router) Init() tea.Cmd {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1].Init()
}

// Update processes messages and updates the current screen
func (r *Router) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle router-specific messages
	switch msg := msg.(type) {
	case ui.RouterMsg:
		return r, r.Navigate(msg.To)

	case ui.BackMsg:
		return r, r.Pop()

	case tea.WindowSizeMsg:
		r.SetSize(msg.Width, msg.Height)
		return r, nil

	case tea.KeyMsg:
		if msg.String() == "esc" && len(r.stack) > 1 {
			return r, r.Pop()
		}
	}

	if len(r.stack) == 0 {
		return r, nil
	}

	currentScreen := r.stack[len(r.stack)-1]
	updatedScreen, cmd := currentScreen.Update(msg)
	r.stack[len(r.stack)-1] = updatedScreen
	return r, cmd
}

// View renders the current screen
func (r *Router) View() string {
	if len(r.stack) == 0 {
		return "No screen available"
	}
	return r.stack[len(r.stack)-1].View()
}

// SetSize sets the size for the router and current screen
func (r *Router) SetSize(width, height int) {
	r.width = width
	r.height = height

	if len(r.stack) > 0 {
		r.stack[len(r.stack)-1].SetSize(width, height)
	}
}

// Navigate opens the screen for route. Navigating to the root route unwinds
// the stack, and navigating to an already open route pops back to it.
func (r *Router) Navigate(route ui.Route) tea.Cmd {
	for i, open := range r.routes {
		if open == route {
			if i == len(r.routes)-1 {
				return nil
			}
			r.stack = r.stack[:i+1]
			r.routes = r.routes[:i+1]
			return r.resume()
		}
	}

	screen := r.factory(route)
	if screen == nil {
		return nil
	}
	return r.Push(route, screen)
}

// Push adds a new screen to the navigation stack
func (r *Router) Push(route ui.Route, screen Screen) tea.Cmd {
	screen.SetSize(r.width, r.height)
	r.stack = append(r.stack, screen)
	r.routes = append(r.routes, route)
	return screen.Init()
}

// Pop removes the current screen from the stack
func (r *Router) Pop() tea.Cmd {
	if len(r.stack) <= 1 {
		return nil
	}

	r.stack = r.stack[:len(r.stack)-1]
	r.routes = r.routes[:len(r.routes)-1]
	return r.resume()
}

// Replace replaces the current screen with a new one
func (r *Router) Replace(route ui.Route, screen Screen) tea.Cmd {
	if len(r.stack) == 0 {
		return r.Push(route, screen)
	}

	screen.SetSize(r.width, r.height)
	r.stack[len(r.stack)-1] = screen
	r.routes[len(r.routes)-1] = route
	return screen.Init()
}

// resume re-initializes the screen that became current.
func (r *Router) resume() tea.Cmd {
	currentScreen := r.stack[len(r.stack)-1]
	currentScreen.SetSize(r.width, r.height)
	return currentScreen.Init()
}

// Current returns the current screen
func (r *Router) Current() Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

// CurrentRoute returns the route of the current screen
func (r *Router) CurrentRoute() ui.Route {
	if len(r.routes) == 0 {
		return ui.RouteHome
	}
	return r.routes[len(r.routes)-1]
}

// Depth returns the current navigation depth
func (r *Router) Depth() int {
	return len(r.stack)
}

// Clear removes all screens except the first one
func (r *Router) Clear() tea.Cmd {
	if len(r.stack) <= 1 {
		return nil
	}

	r.stack = r.stack[:1]
	r.routes = r.routes[:1]
	return r.resume()
}

// CanGoBack returns true if there are screens to go back to
func (r *Router) CanGoBack() bool {
	return len(r.stack) > 1
}
