package ldif

import (
	"io"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/sirupsen/logrus"

	"github.com/utbest/toolbox/shared"
)

// An Encoder writes users and groups as LDIF entries.
type Encoder struct {
	w          io.Writer
	definition shared.DirectoryDefinition
	logger     *logrus.Logger
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer, definition shared.DirectoryDefinition, logger *logrus.Logger) *Encoder {
	return &Encoder{w: w, definition: definition, logger: logger}
}

// DN returns the distinguished name of the entry with the given common name below base.
func DN(cn string, base string) string {
	return "cn=" + ldap.EscapeDN(strings.TrimSpace(cn)) + "," + base
}

// EncodeUsers writes one entry per user.
func (e *Encoder) EncodeUsers(users []User) error {
	for _, u := range users {
		var b strings.Builder

		e.writeHead(&b, DN(u.CN, e.definition.Users.Base), e.definition.Users.ObjectClasses)
		e.writeAttributes(&b, u.Attributes(), &e.definition.Users)
		b.WriteString("\n")

		_, err := io.WriteString(e.w, b.String())
		if err != nil {
			return err
		}
	}

	return nil
}

// EncodeGroups writes one entry per group, including member references to
// the users.
func (e *Encoder) EncodeGroups(groups []Group, users []User) error {
	for i := range groups {
		g := &groups[i]

		var b strings.Builder

		e.writeHead(&b, DN(g.CN, e.definition.Groups.Base), e.definition.Groups.ObjectClasses)
		e.writeAttributes(&b, g.Attributes(), &e.definition.Groups)

		membership := ResolveMembers(g, users, e.definition.DefaultGroup)
		if len(membership.Members) == 0 {
			e.logger.WithField("group", g.CN).Warn("Group has no members")
		}

		for _, u := range membership.Members {
			b.WriteString("member: " + DN(u.CN, e.definition.Users.Base) + "\n")
		}

		b.WriteString("\n")

		_, err := io.WriteString(e.w, b.String())
		if err != nil {
			return err
		}
	}

	return nil
}

func (e *Encoder) writeHead(b *strings.Builder, dn string, objectClasses []string) {
	b.WriteString("dn: " + dn + "\n")

	for _, oc := range objectClasses {
		b.WriteString("objectClass: " + oc + "\n")
	}
}

func (e *Encoder) writeAttributes(b *strings.Builder, attrs []Attribute, entries *shared.DirectoryEntries) {
	for _, attr := range attrs {
		if entries.IgnoredAttribute(attr.Name) {
			continue
		}

		value := strings.TrimSpace(attr.Value)
		if value == "" {
			continue
		}

		b.WriteString(attr.Name + ": " + value + "\n")
	}
}
