package ldif

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/utbest/toolbox/shared"
)

const groupFields = 4

// A Group is a group file entry.
type Group struct {
	CN        string
	Password  string
	GIDNumber string
	// MemberUIDs is nil if the group lists no members.
	MemberUIDs []string
}

// Attributes returns the directory attributes of the group in export order.
// Members are not included, see ResolveMembers.
func (g *Group) Attributes() []Attribute {
	return []Attribute{
		{"cn", g.CN},
		{"userPassword", g.Password},
		{"gidNumber", g.GIDNumber},
	}
}

// ParseGroups reads a group file. Groups which are ignored or whose gid
// number is out of range are skipped.
func ParseGroups(r io.Reader, name string, entries shared.DirectoryEntries) ([]Group, error) {
	records, err := readRecords(r, name)
	if err != nil {
		return nil, err
	}

	var groups []Group

	for _, rec := range records {
		f := rec.fields

		if entries.Ignored(f[0]) {
			continue
		}

		if len(f) < groupFields {
			return nil, fmt.Errorf("%s:%d: Expected %d fields, got %d", name, rec.line, groupFields, len(f))
		}

		id, err := strconv.Atoi(strings.TrimSpace(f[2]))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: Invalid gid number %q: %w", name, rec.line, f[2], err)
		}

		if !entries.InRange(id) {
			continue
		}

		group := Group{
			CN:        f[0],
			Password:  f[1],
			GIDNumber: f[2],
		}

		for _, uid := range strings.Split(f[3], ",") {
			uid = strings.TrimSpace(uid)
			if uid == "" {
				continue
			}

			group.MemberUIDs = append(group.MemberUIDs, uid)
		}

		groups = append(groups, group)
	}

	return groups, nil
}

// A Membership holds the resolved members of a group.
type Membership struct {
	Group   *Group
	Members []*User
}

// ResolveMembers resolves the member uids of group against users. The
// default group contains all users regardless of its member list. Member uids
// without a matching user are dropped.
func ResolveMembers(group *Group, users []User, defaultGroup string) Membership {
	m := Membership{Group: group}

	if defaultGroup != "" && group.CN == defaultGroup {
		for i := range users {
			m.Members = append(m.Members, &users[i])
		}

		return m
	}

	for _, uid := range group.MemberUIDs {
		for i := range users {
			if users[i].UID == uid {
				m.Members = append(m.Members, &users[i])
			}
		}
	}

	return m
}
