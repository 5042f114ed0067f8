package domain

import "strings"

const (
	MaxRoomNameLen = 64
	// FallbackRoom is used when the requested room is blank.
	FallbackRoom RoomName = "General"
)

// RoomName is case sensitive.
type RoomName string

type Room struct {
	Name RoomName
}

// NormalizeRoomName trims the requested name and falls back to FallbackRoom.
// Names longer than MaxRoomNameLen runes are cut, so they share a room with
// every name that has the same prefix.
func NormalizeRoomName(raw string) RoomName {
	name := strings.TrimSpace(raw)
	if name == "" {
		return FallbackRoom
	}
	return RoomName(truncateRunes(name, MaxRoomNameLen))
}
