// Package tenant resolves per-room deployment context: which venue a room
// belongs to, its source and default target languages, and any prompt
// customization. Rooms live in Postgres; a missing row degrades to defaults
// rather than failing the session.
package tenant

import "fmt"

// Context carries the tenant configuration for one room session. A zero
// value (plus languages filled from service defaults) is valid for rooms
// that are not registered in the database.
type Context struct {
	RoomID    string
	MosqueID  string
	RoomTitle string

	// TranscriptionLanguage is the source language spoken in the room.
	TranscriptionLanguage string

	// TranslationLanguage is the default target language for displays that
	// have not requested one.
	TranslationLanguage string

	// ContextWindowSize overrides the translation history window for this
	// room. Zero means use the service default.
	ContextWindowSize int

	// TranslationPrompt is a tenant-supplied prompt template. Empty means
	// resolve a template by room or fall back to the default.
	TranslationPrompt string

	// SessionID is the active persistence session for this room, if any.
	SessionID string

	// STT tuning knobs passed through to the speech provider.
	MaxDelay               float64
	PunctuationSensitivity float64
}

// ChannelName returns the broadcast channel displays subscribe to for this
// room.
func (c *Context) ChannelName() string {
	return fmt.Sprintf("live-transcription-%s-%s", c.RoomID, c.MosqueID)
}

// Registered reports whether the room was found in the database.
func (c *Context) Registered() bool {
	return c != nil && c.RoomID != ""
}
