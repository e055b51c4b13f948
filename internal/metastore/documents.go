package metastore

import (
	"encoding/json"

	"github.com/mesh-intelligence/metastore/internal/props"
	"github.com/mesh-intelligence/metastore/pkg/types"
)

// On-disk document shapes. Properties stay raw so that structured values
// round-trip untouched and merges see every key.

type rootDoc struct {
	Version int `json:"Version"`
}

type accountDoc struct {
	Version      int                        `json:"Version"`
	UniqueID     string                     `json:"UniqueId"`
	UserName     string                     `json:"UserName"`
	FullName     string                     `json:"FullName"`
	WorkspaceIDs []string                   `json:"WorkspaceIds"`
	Properties   map[string]json.RawMessage `json:"Properties"`
}

type workspaceDoc struct {
	Version      int                        `json:"Version"`
	UniqueID     string                     `json:"UniqueId"`
	UserID       string                     `json:"UserId"`
	FullName     string                     `json:"FullName"`
	ProjectNames []string                   `json:"ProjectNames"`
	Properties   map[string]json.RawMessage `json:"Properties"`
}

type projectDoc struct {
	Version         int                        `json:"Version"`
	UniqueID        string                     `json:"UniqueId"`
	WorkspaceID     string                     `json:"WorkspaceId"`
	FullName        string                     `json:"FullName"`
	ContentLocation string                     `json:"ContentLocation"`
	Properties      map[string]json.RawMessage `json:"Properties"`
}

func (d *accountDoc) account() (*types.Account, error) {
	p, err := props.Flatten(d.Properties)
	if err != nil {
		return nil, err
	}
	return &types.Account{
		ID:           d.UniqueID,
		UserName:     d.UserName,
		FullName:     d.FullName,
		WorkspaceIDs: nonNil(d.WorkspaceIDs),
		Properties:   p,
	}, nil
}

func (d *workspaceDoc) workspace() (*types.Workspace, error) {
	p, err := props.Flatten(d.Properties)
	if err != nil {
		return nil, err
	}
	return &types.Workspace{
		ID:           d.UniqueID,
		AccountID:    d.UserID,
		FullName:     d.FullName,
		ProjectNames: nonNil(d.ProjectNames),
		Properties:   p,
	}, nil
}

func (d *projectDoc) project() (*types.Project, error) {
	p, err := props.Flatten(d.Properties)
	if err != nil {
		return nil, err
	}
	return &types.Project{
		ID:              d.UniqueID,
		WorkspaceID:     d.WorkspaceID,
		FullName:        d.FullName,
		ContentLocation: d.ContentLocation,
		Properties:      p,
	}, nil
}

func cloneAccount(a *types.Account) *types.Account {
	c := *a
	c.WorkspaceIDs = append([]string{}, a.WorkspaceIDs...)
	c.Properties = make(map[string]string, len(a.Properties))
	for k, v := range a.Properties {
		c.Properties[k] = v
	}
	return &c
}
