package types

// Workspace is a named container of projects belonging to one account.
type Workspace struct {
	ID           string            `json:"UniqueId"`
	AccountID    string            `json:"UserId"`
	FullName     string            `json:"FullName"`
	ProjectNames []string          `json:"ProjectNames"`
	Properties   map[string]string `json:"Properties,omitempty"`
}

// HasProject reports whether name is listed in the workspace.
func (w *Workspace) HasProject(name string) bool {
	for _, n := range w.ProjectNames {
		if n == name {
			return true
		}
	}
	return false
}
