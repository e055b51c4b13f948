package types

// MetaStore is the entity CRUD contract consumed by the HTTP, authentication
// and version-control layers. Implementations are safe for concurrent use.
type MetaStore interface {
	// CreateAccount stores a new account under acct.UserName (or acct.ID
	// when UserName is empty). Returns ErrAlreadyExists if the account
	// folder exists.
	CreateAccount(acct *Account) error

	// ReadAccount loads an account. A missing account is provisioned with
	// DefaultFullName and returned rather than reported as ErrNotFound.
	ReadAccount(id string) (*Account, error)

	// UpdateAccount rewrites the account document and flushes changes into
	// its properties. When acct.UserName differs from acct.ID the account
	// and everything it owns is renamed first. acct.WorkspaceIDs is
	// refreshed from the store, not written.
	UpdateAccount(acct *Account, changes *ChangeSet) error

	// DeleteAccount removes the account after deleting its workspaces.
	DeleteAccount(id string) error

	// ListAccounts returns the ids of every stored account.
	ListAccounts() ([]string, error)

	// CreateWorkspace stores a new workspace and assigns ws.ID. The owning
	// account must exist.
	CreateWorkspace(ws *Workspace) error

	ReadWorkspace(id string) (*Workspace, error)

	// UpdateWorkspace rewrites the workspace document. When ws.AccountID no
	// longer matches the account encoded in ws.ID the workspace moves to
	// that account and ws.ID changes. ws.ProjectNames is refreshed from the
	// store, not written.
	UpdateWorkspace(ws *Workspace, changes *ChangeSet) error

	// DeleteWorkspace removes the workspace after deleting its projects.
	DeleteWorkspace(accountID, id string) error

	// CreateProject stores a new project and assigns p.ID. An empty
	// ContentLocation is replaced by the default location.
	CreateProject(p *Project) error

	// ReadProject loads a project. If the project folder exists without a
	// document, a document is rebuilt from the folder.
	ReadProject(workspaceID, name string) (*Project, error)

	// UpdateProject rewrites the project document. When p.FullName no longer
	// matches p.ID the project is renamed and p.ID changes.
	UpdateProject(p *Project, changes *ChangeSet) error

	DeleteProject(workspaceID, name string) error

	// DefaultContentLocation returns the content URI a project named name
	// gets in the workspace when no location is supplied.
	DefaultContentLocation(workspaceID, name string) (string, error)

	// Close releases the document store.
	Close() error
}
