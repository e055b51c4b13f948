package types

// DefaultFullName is assigned to accounts provisioned on first read.
const DefaultFullName = "Unnamed User"

// Account is a tenant record owning zero or more workspaces.
//
// ID is the login name the account is stored under. UserName is the login
// name the caller wants; when it differs from ID on update the store renames
// the account.
type Account struct {
	ID           string            `json:"UniqueId"`
	UserName     string            `json:"UserName"`
	FullName     string            `json:"FullName"`
	WorkspaceIDs []string          `json:"WorkspaceIds"`
	Properties   map[string]string `json:"Properties,omitempty"`
}

// NewAccount returns an account whose ID and UserName are the login name.
func NewAccount(login, fullName string) *Account {
	return &Account{
		ID:           login,
		UserName:     login,
		FullName:     fullName,
		WorkspaceIDs: []string{},
		Properties:   map[string]string{},
	}
}

// Property returns the value of key and whether it is set.
func (a *Account) Property(key string) (string, bool) {
	v, ok := a.Properties[key]
	return v, ok
}
