package domain

import "time"

// NoteVisibility differentiates citizen-visible replies from internal notes.
type NoteVisibility string

const (
	NotePublic   NoteVisibility = "PUBLIC"
	NoteInternal NoteVisibility = "INTERNAL"
)

// GrievanceNote captures communications in a grievance thread.
type GrievanceNote struct {
	ID          string
	GrievanceID string
	AuthorType  ActorType
	AuthorID    *string
	Visibility  NoteVisibility
	Body        string
	CreatedAt   time.Time
}
