// Package access decides whether a user may translate catalogs.
//
// The editing core only sees the Authorizer interface; GroupPolicy is the
// default implementation driven by configuration.
package access

import (
	"slices"
	"strings"
)

// DefaultGroup is the group whose members may translate every language.
const DefaultGroup = "translators"

// User is the identity of the acting editor.
type User struct {
	Username      string
	FirstName     string
	LastName      string
	Email         string
	Authenticated bool
	Superuser     bool
	Staff         bool
	Groups        []string
}

// Anonymous is the identity used when no user is known.
var Anonymous = User{Username: "anonymous"}

// InGroup reports membership in the named group.
func (u User) InGroup(name string) bool {
	return slices.Contains(u.Groups, name)
}

// Authorizer answers whether user may translate the given language. An
// empty language asks whether the user may translate anything at all.
type Authorizer interface {
	CanTranslate(user User, language string) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(user User, language string) bool

// CanTranslate calls fn.
func (fn AuthorizerFunc) CanTranslate(user User, language string) bool {
	return fn(user, language)
}

// AllowAll lets everybody translate.
var AllowAll Authorizer = AuthorizerFunc(func(User, string) bool { return true })

// GroupPolicy grants access to superusers who are also staff and to members
// of Group. With LanguageGroups set, membership in "<Group>-<language>"
// grants access to that language only.
type GroupPolicy struct {
	RequiresAuth   bool
	Group          string
	LanguageGroups bool
}

// DefaultPolicy requires authentication and the "translators" group.
func DefaultPolicy() GroupPolicy {
	return GroupPolicy{RequiresAuth: true, Group: DefaultGroup}
}

// CanTranslate implements Authorizer.
func (p GroupPolicy) CanTranslate(user User, language string) bool {
	if !p.RequiresAuth {
		return true
	}
	if !user.Authenticated {
		return false
	}
	if user.Superuser && user.Staff {
		return true
	}

	group := p.Group
	if group == "" {
		group = DefaultGroup
	}
	if user.InGroup(group) {
		return true
	}
	if !p.LanguageGroups {
		return false
	}

	prefix := group + "-"
	if language == "" {
		return slices.ContainsFunc(user.Groups, func(g string) bool {
			return strings.HasPrefix(g, prefix)
		})
	}
	return slices.ContainsFunc(user.Groups, func(g string) bool {
		return strings.EqualFold(g, prefix+language)
	})
}
