package dev

import (
	"time"

	"github.com/nu7hatch/gouuid"
)

// Error is an observation document for engine failures worth a human look
// (aborted settlements, rejected payouts). Stored in the error index.
type Error struct {
	Id        string                 `json:"id"`
	Time      time.Time              `json:"time"`
	Component string                 `json:"component"`
	Name      string                 `json:"name"`
	Error     string                 `json:"error"`
	Extra     map[string]interface{} `json:"extra"`
}

// Slug has to be stable for the lifetime of the document, so the id is
// generated once at construction.
func (e Error) Slug() string {
	return e.Id
}

func NewError(component, name string, err error, extra map[string]interface{}) Error {
	u, _ := uuid.NewV4()

	return Error{
		Id:        u.String(),
		Time:      time.Now(),
		Component: component,
		Name:      name,
		Error:     err.Error(),
		Extra:     extra,
	}
}
