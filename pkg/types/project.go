package types

// Project is a named unit of content belonging to one workspace.
//
// ContentLocation is a URI. When empty on create the store fills in the
// default location, a folder named by the project id inside the workspace
// folder. A project whose location is anything else is linked: renames and
// moves update its metadata but never touch its content.
type Project struct {
	ID              string            `json:"UniqueId"`
	WorkspaceID     string            `json:"WorkspaceId"`
	FullName        string            `json:"FullName"`
	ContentLocation string            `json:"ContentLocation"`
	Properties      map[string]string `json:"Properties,omitempty"`
}
