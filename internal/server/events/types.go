package events

import (
	"time"
)

// EventType defines the type of event
type EventType string

const (
	// Document events
	EventDocumentSaved   EventType = "document:saved"   // écrit par ce serveur
	EventDocumentChanged EventType = "document:changed" // modifié hors du serveur (fichier surveillé)

	// Filière events
	EventFiliereUpdated EventType = "filiere:updated"
	EventEventAdded     EventType = "filiere:event_added"

	// Stream events
	EventConnected EventType = "connection:established"
)

// Event represents a real-time event
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Filiere   string      `json:"filiere,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// NewEvent creates a new event
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// WithFiliere sets the filière key
func (e *Event) WithFiliere(key string) *Event {
	e.Filiere = key
	return e
}

// WithRequest sets the originating request id
func (e *Event) WithRequest(id string) *Event {
	e.RequestID = id
	return e
}

// DocumentSavedData describes a saved document
type DocumentSavedData struct {
	Filieres int    `json:"filieres"`
	Backend  string `json:"backend"`
}

// FiliereUpdatedData lists the fields a patch touched
type FiliereUpdatedData struct {
	Fields []string `json:"fields,omitempty"`
}

// EventAddedData carries the new recent event
type EventAddedData struct {
	Date  string `json:"date"`
	Titre string `json:"titre"`
}
