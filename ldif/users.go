package ldif

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/utbest/toolbox/shared"
)

const passwdFields = 7

// An Attribute is a single name/value pair of a directory entry.
type Attribute struct {
	Name  string
	Value string
}

// A User is a passwd entry.
type User struct {
	UID           string
	Password      string
	UIDNumber     string
	GIDNumber     string
	DisplayName   string
	HomeDirectory string
	LoginShell    string
	CN            string
	GivenName     string
	SN            string
}

// Attributes returns the directory attributes of the user in export order.
func (u *User) Attributes() []Attribute {
	return []Attribute{
		{"uid", u.UID},
		{"userPassword", u.Password},
		{"uidNumber", u.UIDNumber},
		{"gidNumber", u.GIDNumber},
		{"displayName", u.DisplayName},
		{"homeDirectory", u.HomeDirectory},
		{"loginShell", u.LoginShell},
		{"cn", u.CN},
		{"givenName", u.GivenName},
		{"sn", u.SN},
	}
}

// ParseUsers reads a passwd file. Users which are ignored or whose uid number
// is out of range are skipped.
func ParseUsers(r io.Reader, name string, entries shared.DirectoryEntries, logger *logrus.Logger) ([]User, error) {
	records, err := readRecords(r, name)
	if err != nil {
		return nil, err
	}

	var users []User

	for _, rec := range records {
		f := rec.fields

		if entries.Ignored(f[0]) {
			continue
		}

		if len(f) < passwdFields {
			return nil, fmt.Errorf("%s:%d: Expected %d fields, got %d", name, rec.line, passwdFields, len(f))
		}

		id, err := strconv.Atoi(strings.TrimSpace(f[2]))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: Invalid uid number %q: %w", name, rec.line, f[2], err)
		}

		if !entries.InRange(id) {
			continue
		}

		user := User{
			UID:           f[0],
			Password:      f[1],
			UIDNumber:     f[2],
			GIDNumber:     f[3],
			DisplayName:   strings.Split(f[4], ",")[0],
			HomeDirectory: f[5],
			LoginShell:    f[6],
		}

		user.CN, user.GivenName, user.SN = splitName(user.DisplayName)
		if user.CN == "" {
			logger.WithField("uid", user.UID).Warn("User has no name, using uid")
			user.CN, user.GivenName, user.SN = user.UID, user.UID, user.UID
		}

		users = append(users, user)
	}

	return users, nil
}

// splitName derives the common name, given name and surname from a display
// name. Anything from the first parenthesis on is dropped. A single word is
// used as both given name and surname.
func splitName(displayName string) (string, string, string) {
	cn := strings.TrimSpace(strings.Split(displayName, "(")[0])

	words := strings.Fields(cn)

	switch len(words) {
	case 0:
		return "", "", ""
	case 1:
		return cn, words[0], words[0]
	}

	return cn, strings.Join(words[:len(words)-1], " "), words[len(words)-1]
}
