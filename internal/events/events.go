// Package events carries session lifecycle notifications to observers that do
// not watch the state store directly.
package events

// Namespace prefixes event names on the wire, see [Topic].
const Namespace = "sanctum"

// Event names.
const (
	NameUserInitialized = "userInitialized"
	NameAuthenticated   = "authenticated"
	NameLoggedOut       = "loggedOut"
)

// Event is a single session lifecycle notification.
type Event interface {
	// Name returns the un-namespaced event name.
	Name() string
}

// UserInitialized is emitted when the session user goes from empty to
// populated.
type UserInitialized struct {
	User map[string]any
}

// Name implements the [Event] interface for UserInitialized.
func (UserInitialized) Name() string { return NameUserInitialized }

// Authenticated is emitted when the authenticated flag is set to true.
type Authenticated struct {
	Value bool
}

// Name implements the [Event] interface for Authenticated.
func (Authenticated) Name() string { return NameAuthenticated }

// LoggedOut is emitted on every state clear.
type LoggedOut struct{}

// Name implements the [Event] interface for LoggedOut.
func (LoggedOut) Name() string { return NameLoggedOut }

// Topic returns the namespaced name of e, e.g. "sanctum:loggedOut".
func Topic(e Event) string {
	return Namespace + ":" + e.Name()
}
