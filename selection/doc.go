// Package selection resolves which add-ons are active in a project.
//
// A State records what the user picked (UserSelected, in toggle order),
// what the hosting context pins (Forced), which capabilities are enabled
// (Capabilities) and the derived Effective set: the requirement closure of
// UserSelected and Forced with exclusivity conflicts and unmet capabilities
// removed.
//
// # Toggling
//
// Toggle is pure and total. It never fails for an id the catalog does not
// know; it returns the state unchanged instead.
//
//	state := selection.New(cat, selection.Init{UserSelected: []string{"auth-basic"}})
//	state = selection.Toggle(cat, state, "auth-oauth")
//	// auth-basic is evicted, auth-oauth and http-client are effective.
//
// Turning an add-on on evicts every effective add-on sharing an exclusive
// group with the add-on or one of its requirements, together with the
// user-selected add-ons that needed the evicted ones. The newly toggled
// add-on always wins.
//
// Turning an add-on off removes it from UserSelected and recomputes the
// Effective set from scratch. An add-on that another selected add-on still
// requires stays effective.
//
// # Exclusivity Tie-Break
//
// When the roots of a state disagree (for example a state built from a URL
// that names two add-ons of the same group), forced add-ons are accepted
// first and then user-selected add-ons from the most recently toggled
// backwards. A root whose closure conflicts with an accepted one is dropped.
//
// # Copy-on-Write
//
// Every operation returns a new State. Slices inside a State are never
// modified after construction, so a State may be shared between goroutines.
package selection
