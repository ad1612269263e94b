// state/interfaces.go
package state

// RoomContext is the slice of a room a phase needs for logging.
// This breaks the import cycle between room and state.
type RoomContext interface {
	GetID() string
}
