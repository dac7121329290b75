// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package view holds client-side screen state: routing between screens, the
// new-idea form, the idea detail page with its stage controls and polls, the
// loading screen of a full analysis run and the login session.
package view

import (
	"sync"
)

// Screen names a top-level screen.
type Screen string

const (
	ScreenHome     Screen = "home"
	ScreenLogin    Screen = "login"
	ScreenRegister Screen = "register"
	ScreenIdeas    Screen = "ideas"
	ScreenNewIdea  Screen = "new_idea"
	ScreenIdea     Screen = "idea"
	ScreenLoading  Screen = "loading"
	ScreenResult   Screen = "result"
	ScreenReport   Screen = "report"
)

// Route is a screen plus the id of the entity it shows, if any.
type Route struct {
	Screen Screen
	ID     string
}

// String renders the route as a path.
func (r Route) String() string {
	switch r.Screen {
	case ScreenHome, "":
		return "/"
	case ScreenLogin:
		return "/login"
	case ScreenRegister:
		return "/register"
	case ScreenIdeas:
		return "/ideas"
	case ScreenNewIdea:
		return "/ideas/new"
	case ScreenIdea:
		return "/ideas/" + r.ID
	case ScreenReport:
		return "/reports/" + r.ID
	case ScreenResult:
		return "/result/" + r.ID
	}
	return "/" + string(r.Screen)
}

// Router tracks the current screen. It is safe for concurrent use; listeners
// run synchronously on the navigating goroutine.
type Router struct {
	mu        sync.Mutex
	current   Route
	history   []Route
	listeners []func(Route)
}

// NewRouter returns a router showing start.
func NewRouter(start Route) *Router {
	return &Router{current: start}
}

// Current returns the route on screen.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate shows to and notifies listeners. Navigating to the current route
// is a no-op.
func (r *Router) Navigate(to Route) {
	r.mu.Lock()
	if to == r.current {
		r.mu.Unlock()
		return
	}
	r.history = append(r.history, r.current)
	r.current = to
	listeners := append([]func(Route){}, r.listeners...)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(to)
	}
}

// Back returns to the previous route. It reports false when there is none.
func (r *Router) Back() bool {
	r.mu.Lock()
	if len(r.history) == 0 {
		r.mu.Unlock()
		return false
	}
	to := r.history[len(r.history)-1]
	r.history = r.history[:len(r.history)-1]
	r.current = to
	listeners := append([]func(Route){}, r.listeners...)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(to)
	}
	return true
}

// OnChange registers fn to run after every navigation.
func (r *Router) OnChange(fn func(Route)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// RequireLogin routes to the login screen. It is the apiclient auth failure
// hook.
func (r *Router) RequireLogin() {
	r.Navigate(Route{Screen: ScreenLogin})
}
