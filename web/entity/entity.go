// Package entity defines data structures shared by the web layer of the vAio Board panel.
package entity

// Msg represents a standard API response message with success status, message text, and optional data object.
type Msg struct {
	Success bool   `json:"success"` // Indicates if the operation was successful
	Msg     string `json:"msg"`     // Response message text
	Obj     any    `json:"obj"`     // Optional data object
}

// StatusUpdate is the payload broadcast to a module namespace whenever the
// module's process state changes.
type StatusUpdate struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	ModuleType string `json:"module_type,omitempty"`
}
