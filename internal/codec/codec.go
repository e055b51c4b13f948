// Package codec maps entity names to folder-safe identifiers and back.
//
// A workspace id is the owning account id, a dash, and the encoded workspace
// name, optionally followed by a decimal collision suffix. A project id is the
// encoded project name; it is unique within its workspace. Encoded names
// contain only ASCII letters, digits, '.', '_' and %XX escapes, so they never
// contain the '-' separator and never start with '.'.
//
// Decoding never fails loudly: malformed ids decode to "" and callers treat
// that as not found.
package codec

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Separator joins the account id and the encoded workspace name.
const Separator = "-"

const upperhex = "0123456789ABCDEF"

func safe(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
		return true
	case b == '.' || b == '_':
		return true
	}
	return false
}

// EncodeName returns the folder-safe token for name.
func EncodeName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for i := 0; i < len(name); i++ {
		b := name[i]
		if safe(b) && !(i == 0 && b == '.') {
			sb.WriteByte(b)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[b>>4])
		sb.WriteByte(upperhex[b&0x0f])
	}
	return sb.String()
}

// DecodeName reverses EncodeName. It returns "" if token is not a valid
// encoding.
func DecodeName(token string) string {
	if token == "" || token[0] == '.' {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(token))
	for i := 0; i < len(token); i++ {
		b := token[i]
		if b == '%' {
			if i+2 >= len(token) {
				return ""
			}
			hi, ok1 := unhex(token[i+1])
			lo, ok2 := unhex(token[i+2])
			if !ok1 || !ok2 {
				return ""
			}
			sb.WriteByte(hi<<4 | lo)
			i += 2
			continue
		}
		if !safe(b) {
			return ""
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// StripSuffix removes a trailing collision suffix from an encoded name. Digits
// belonging to the last %XX escape are never stripped. A name that itself
// ends in digits loses them too; decoding is ambiguous in that case.
func StripSuffix(token string) string {
	floor := 0
	if p := strings.LastIndexByte(token, '%'); p >= 0 {
		floor = p + 3
	}
	end := len(token)
	for end > floor && end > 0 && token[end-1] >= '0' && token[end-1] <= '9' {
		end--
	}
	if end == 0 {
		return token
	}
	return token[:end]
}

// EncodeWorkspaceID returns the id for a workspace called name in account
// accountID, without collision handling.
func EncodeWorkspaceID(accountID, name string) string {
	return accountID + Separator + EncodeName(name)
}

// NextWorkspaceID returns the first workspace id for name in account
// accountID that taken reports as free, appending 1, 2, ... to the encoded
// name on collision.
func NextWorkspaceID(accountID, name string, taken func(id string) (bool, error)) (string, error) {
	base := EncodeWorkspaceID(accountID, name)
	id := base
	for suffix := 1; ; suffix++ {
		used, err := taken(id)
		if err != nil {
			return "", err
		}
		if !used {
			return id, nil
		}
		id = base + strconv.Itoa(suffix)
	}
}

// DecodeAccountID returns the account id embedded in a workspace id.
func DecodeAccountID(workspaceID string) string {
	i := strings.LastIndex(workspaceID, Separator)
	if i <= 0 || i == len(workspaceID)-1 {
		return ""
	}
	return workspaceID[:i]
}

// WorkspaceToken returns the encoded name part of a workspace id, including
// any collision suffix.
func WorkspaceToken(workspaceID string) string {
	if DecodeAccountID(workspaceID) == "" {
		return ""
	}
	return workspaceID[strings.LastIndex(workspaceID, Separator)+1:]
}

// DecodeWorkspaceName returns the workspace name encoded in a workspace id,
// with any collision suffix removed.
func DecodeWorkspaceName(workspaceID string) string {
	token := WorkspaceToken(workspaceID)
	if token == "" {
		return ""
	}
	return DecodeName(StripSuffix(token))
}

// ValidWorkspaceID reports whether id is a well-formed workspace id: a valid
// account id, the separator and a valid encoded name.
func ValidWorkspaceID(id string) bool {
	return ValidAccountID(DecodeAccountID(id)) && DecodeWorkspaceName(id) != ""
}

// RebaseWorkspaceID returns workspaceID moved under newAccountID, keeping its
// encoded name and suffix.
func RebaseWorkspaceID(workspaceID, newAccountID string) string {
	token := WorkspaceToken(workspaceID)
	if token == "" {
		return ""
	}
	return newAccountID + Separator + token
}

// EncodeProjectID returns the id for a project called name.
func EncodeProjectID(name string) string {
	return EncodeName(name)
}

// DecodeProjectName returns the project name encoded in a project id.
func DecodeProjectName(projectID string) string {
	return DecodeName(projectID)
}

// AccountPrefix returns the bucket folder name for an account: its first two
// characters.
func AccountPrefix(accountID string) string {
	n := 0
	for i := range accountID {
		if n == 2 {
			return accountID[:i]
		}
		n++
	}
	return accountID
}

// ValidAccountID reports whether id can name an account folder.
func ValidAccountID(id string) bool {
	if id == "" || id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return false
	}
	if !utf8.ValidString(id) {
		return false
	}
	return !strings.ContainsAny(id, "/\\\x00")
}
