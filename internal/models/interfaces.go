package models

// Keyed is implemented by every synchronized entity; Key returns the natural
// identifier that is unique within the entity's collection.
type Keyed interface {
	Key() string
}
