package core

import (
	"strings"
	"sync"
)

// The closed set of page sections the shell can show, in nav-bar order.
// The first entry is the landing view.
const (
	ViewHome          = "home"
	ViewAbout         = "about"
	ViewAssistant     = "assistant"
	ViewKnowledgeBase = "knowledge-base"
	ViewSupport       = "support"
	ViewContact       = "contact"
)

func DefaultViews() []string {
	return []string{ViewHome, ViewAbout, ViewAssistant, ViewKnowledgeBase, ViewSupport, ViewContact}
}

// Navigator tracks which view is active. Exactly one view is active at a
// time; every transition replaces the previous one atomically and is recorded
// on a history stack for the "back" affordance. The browser address fragment
// is the only persisted navigation state, mirrored via Fragment.
type Navigator struct {
	mu      sync.Mutex
	views   []string
	history []string // current view is the last entry
}

func NewNavigator(views ...string) *Navigator {
	if len(views) == 0 {
		views = DefaultViews()
	}
	return &Navigator{
		views:   views,
		history: []string{views[0]},
	}
}

func (n *Navigator) Views() []string {
	out := make([]string, len(n.views))
	copy(out, n.views)
	return out
}

func (n *Navigator) IsKnown(view string) bool {
	for _, v := range n.views {
		if v == view {
			return true
		}
	}
	return false
}

func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.history[len(n.history)-1]
}

// Navigate activates the requested view. An unknown identifier is a silent
// no-op; navigating to the already-active view does not grow the history.
// Returns whether the requested view ended up active.
func (n *Navigator) Navigate(view string) bool {
	if !n.IsKnown(view) {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.history[len(n.history)-1] == view {
		return true
	}
	n.history = append(n.history, view)
	return true
}

// GoBack reactivates the most recent prior view. With nothing left to pop it
// is a no-op. Returns the active view after the call.
func (n *Navigator) GoBack() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.history) > 1 {
		n.history = n.history[:len(n.history)-1]
	}
	return n.history[len(n.history)-1]
}

// Fragment is the address-bar form of the active view ("#home").
func (n *Navigator) Fragment() string {
	return "#" + n.Current()
}

// NavigateFragment applies the address-bar contract on load: a fragment
// naming a known view activates it, anything else (including an empty
// fragment) leaves the landing view active. Returns the active view.
func (n *Navigator) NavigateFragment(fragment string) string {
	view := strings.TrimPrefix(strings.TrimSpace(fragment), "#")
	if view != "" {
		n.Navigate(view)
	}
	return n.Current()
}
