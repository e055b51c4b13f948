package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeName(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"Demo", "Demo"},
		{"My Workspace", "My%20Workspace"},
		{"a-b", "a%2Db"},
		{".hidden", "%2Ehidden"},
		{"v1.2_final", "v1.2_final"},
		{"50%", "50%25"},
		{"dir/sub", "dir%2Fsub"},
		{"héllo", "h%C3%A9llo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeName(tt.name)
			assert.Equal(t, tt.encoded, got)
			assert.NotContains(t, got, Separator)
			assert.Equal(t, tt.name, DecodeName(got))
		})
	}
}

func TestDecodeNameMalformed(t *testing.T) {
	for _, token := range []string{"", "%", "%2", "%ZZ", "a b", "x-y", "a/b"} {
		assert.Equal(t, "", DecodeName(token), "token %q", token)
	}
}

func TestStripSuffix(t *testing.T) {
	tests := map[string]string{
		"Demo":   "Demo",
		"Demo1":  "Demo",
		"Demo12": "Demo",
		"a%23":   "a%23",
		"a%231":  "a%23",
		"2024":   "2024",
		"%2D7":   "%2D",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripSuffix(in), "StripSuffix(%q)", in)
	}
}

func TestWorkspaceIDs(t *testing.T) {
	id := EncodeWorkspaceID("alice", "My Demo")
	assert.Equal(t, "alice-My%20Demo", id)
	assert.Equal(t, "alice", DecodeAccountID(id))
	assert.Equal(t, "My Demo", DecodeWorkspaceName(id))
	assert.Equal(t, "My%20Demo", WorkspaceToken(id))

	// Account ids may contain the separator; names never do.
	id = EncodeWorkspaceID("jean-luc", "a-b")
	assert.Equal(t, "jean-luc", DecodeAccountID(id))
	assert.Equal(t, "a-b", DecodeWorkspaceName(id))

	assert.Equal(t, "bob-My%20Demo", RebaseWorkspaceID("alice-My%20Demo", "bob"))
}

func TestWorkspaceIDMalformed(t *testing.T) {
	for _, id := range []string{"", "alice", "-Demo", "alice-"} {
		assert.Equal(t, "", DecodeAccountID(id), "id %q", id)
		assert.Equal(t, "", DecodeWorkspaceName(id), "id %q", id)
		assert.Equal(t, "", RebaseWorkspaceID(id, "bob"), "id %q", id)
	}
	assert.Equal(t, "", DecodeWorkspaceName("alice-%G1"))
}

func TestValidWorkspaceID(t *testing.T) {
	for _, id := range []string{"alice-Demo", "alice-Demo2", "jean-luc-My%20Work", "alice-%2Ehidden"} {
		assert.True(t, ValidWorkspaceID(id), id)
	}
	for _, id := range []string{"", "alice", "alice-", "-Demo", "alice-Demo/proj", "alice-..", "alice-.hidden",
		"alice-Demo%2", "a/b-Demo", "alice-De mo"} {
		assert.False(t, ValidWorkspaceID(id), id)
	}
}

func TestNextWorkspaceIDCollision(t *testing.T) {
	taken := map[string]bool{"alice-Demo": true, "alice-Demo1": true}
	id, err := NextWorkspaceID("alice", "Demo", func(id string) (bool, error) {
		return taken[id], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "alice-Demo2", id)
	assert.Equal(t, "Demo", DecodeWorkspaceName(id))

	id, err = NextWorkspaceID("alice", "Other", func(id string) (bool, error) {
		return taken[id], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "alice-Other", id)
}

func TestProjectIDs(t *testing.T) {
	id := EncodeProjectID("Project 2")
	assert.Equal(t, "Project%202", id)
	// Project ids carry no collision suffix, so trailing digits survive.
	assert.Equal(t, "Project 2", DecodeProjectName(id))
	assert.Equal(t, "", DecodeProjectName("bad%"))
}

func TestAccountPrefix(t *testing.T) {
	assert.Equal(t, "an", AccountPrefix("anthony"))
	assert.Equal(t, "a", AccountPrefix("a"))
	assert.Equal(t, "éa", AccountPrefix("éabc"))
}

func TestValidAccountID(t *testing.T) {
	for _, id := range []string{"alice", "jean-luc", "user@example.com", "éa"} {
		assert.True(t, ValidAccountID(id), id)
	}
	for _, id := range []string{"", ".", "..", ".hidden", "a/b", `a\b`, "a\x00"} {
		assert.False(t, ValidAccountID(id), id)
	}
}
