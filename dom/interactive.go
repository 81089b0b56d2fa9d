package dom

import "strings"

// interactiveTags are natively interactive elements.
var interactiveTags = map[string]bool{
	"a": true, "button": true, "input": true, "select": true,
	"textarea": true, "details": true, "summary": true,
	"option": true, "optgroup": true, "label": true,
	"menu": true, "menuitem": true,
}

// interactiveRoles are ARIA roles, plus role strings emitted by common
// component libraries, that indicate a clickable widget.
var interactiveRoles = map[string]bool{
	"button": true, "link": true, "textbox": true, "checkbox": true,
	"radio": true, "combobox": true, "listbox": true, "menu": true,
	"menubar": true, "menuitem": true, "menuitemcheckbox": true,
	"menuitemradio": true, "option": true, "tab": true, "switch": true,
	"slider": true, "spinbutton": true, "searchbox": true,
	"gridcell": true, "treeitem": true, "dialog": true, "alertdialog": true,
	"scrollbar": true, "dropdown": true,

	// Vendor component roles.
	"a-button-inner":        true,
	"a-dropdown-button":     true,
	"a-button-text":         true,
	"button-text":           true,
	"button-icon":           true,
	"button-icon-only":      true,
	"button-text-icon-only": true,
	"click":                 true,
}

// interactiveDataActions are data-action markers used by component libraries
// for dropdown triggers.
var interactiveDataActions = map[string]bool{
	"a-dropdown-select": true,
	"a-dropdown-button": true,
}

// clickBindingAttributes are framework click bindings.
var clickBindingAttributes = []string{"onclick", "ng-click", "@click", "v-on:click", "(click)"}

// ariaStateAttributes suggest toggle or selection semantics.
var ariaStateAttributes = []string{"aria-expanded", "aria-pressed", "aria-selected", "aria-checked"}

// listenerEvents are the registered listener types that mark an element as
// a pointer or touch target.
var listenerEvents = []string{"click", "mousedown", "mouseup", "touchstart", "touchend"}

// legacyHandlerEvents are probed through on<event> properties when listener
// introspection is unavailable.
var legacyHandlerEvents = []string{
	"click", "mousedown", "mouseup", "touchstart", "touchend",
	"keydown", "keyup", "focus", "blur",
}

// IsInteractive reports whether an element is a plausible interaction
// target. The check is a heuristic and deliberately over-inclusive.
func IsInteractive(n Node) bool {
	if n == nil || n.Kind() != KindElement {
		return false
	}

	// Tier 1: native tags
	if interactiveTags[strings.ToLower(n.TagName())] {
		return true
	}

	attrs := attributeMap(n)

	// Tier 2: roles
	for _, key := range []string{"role", "aria-role"} {
		if role, ok := attrs[key]; ok && interactiveRoles[strings.ToLower(strings.TrimSpace(role))] {
			return true
		}
	}

	// Tier 3: tabindex and component markers
	if tabindex, ok := attrs["tabindex"]; ok && strings.TrimSpace(tabindex) != "-1" {
		return true
	}
	if interactiveDataActions[attrs["data-action"]] {
		return true
	}

	// Tier 4: click bindings and ARIA state
	for _, name := range clickBindingAttributes {
		if _, ok := attrs[name]; ok {
			return true
		}
	}
	for _, name := range ariaStateAttributes {
		if _, ok := attrs[name]; ok {
			return true
		}
	}
	if attrs["draggable"] == "true" {
		return true
	}

	// Tier 5: script state
	scripted, ok := n.(Scripted)
	if !ok {
		return false
	}
	if scripted.HandlerProperty("click") || scripted.Draggable() {
		return true
	}
	return hasPointerListener(scripted)
}

// hasPointerListener inspects registered listeners, falling back to legacy
// handler properties when the document cannot introspect listeners. The
// fallback only ever adds a positive signal.
func hasPointerListener(s Scripted) bool {
	if listeners, ok := s.EventListeners(); ok {
		for _, ev := range listenerEvents {
			if listeners[ev] {
				return true
			}
		}
		return false
	}

	for _, ev := range legacyHandlerEvents {
		if s.HandlerProperty(ev) {
			return true
		}
	}
	return false
}

// nearestInteractive walks up from n (inclusive) and returns the first
// interactive element, or nil at the root.
func nearestInteractive(n Node) Node {
	for el := n; el != nil && el.Kind() == KindElement; el = parentElement(el) {
		if IsInteractive(el) {
			return el
		}
	}
	return nil
}
