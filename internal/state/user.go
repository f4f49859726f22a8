package state

import (
	"maps"
	"reflect"
	"slices"
	"time"
)

// UserKind tracks how much is known about a user.
type UserKind int

const (
	// UserEmpty means no user is known yet.
	UserEmpty UserKind = iota
	// UserPartial is a stub: only the identifier is known.
	UserPartial
	// UserPopulated carries the full profile.
	UserPopulated
)

// UserState is an immutable user snapshot.
type UserState struct {
	Kind UserKind
	// Identifier is empty only for UserEmpty.
	Identifier string

	// The remaining fields are only set for UserPopulated.
	Name       string
	AvatarURL  string
	CustomData map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EmptyUser returns the empty user.
func EmptyUser() UserState { return UserState{Kind: UserEmpty} }

// PartialUser returns a stub known only by identifier.
func PartialUser(identifier string) UserState {
	return UserState{Kind: UserPartial, Identifier: identifier}
}

// IsComplete reports whether nothing is pending for this user. Only partial
// users are incomplete.
func (u UserState) IsComplete() bool { return u.Kind != UserPartial }

// Supplement fills in a partial user from a populated user with the same
// identifier. A complete receiver is returned unchanged.
func (u UserState) Supplement(other UserState) UserState {
	if u.Kind == UserPartial && other.Kind == UserPopulated && other.Identifier == u.Identifier {
		return other
	}
	return u
}

// Equal reports value equality.
func (u UserState) Equal(o UserState) bool {
	return u.Kind == o.Kind &&
		u.Identifier == o.Identifier &&
		u.Name == o.Name &&
		u.AvatarURL == o.AvatarURL &&
		u.CreatedAt.Equal(o.CreatedAt) &&
		u.UpdatedAt.Equal(o.UpdatedAt) &&
		customDataEqual(u.CustomData, o.CustomData)
}

func customDataEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// UserListState maps user identifiers to users. The zero value is an empty
// list. Methods never mutate the receiver.
type UserListState struct {
	elements map[string]UserState
}

// NewUserList builds a list from users, later entries winning on duplicate
// identifiers.
func NewUserList(users ...UserState) UserListState {
	elements := make(map[string]UserState, len(users))
	for _, u := range users {
		elements[u.Identifier] = u
	}
	return UserListState{elements: elements}
}

// Len returns the number of users.
func (l UserListState) Len() int { return len(l.elements) }

// Get returns the user with the given identifier.
func (l UserListState) Get(identifier string) (UserState, bool) {
	u, ok := l.elements[identifier]
	return u, ok
}

// Identifiers returns all identifiers in sorted order.
func (l UserListState) Identifiers() []string {
	return slices.Sorted(maps.Keys(l.elements))
}

// Users returns all users sorted by identifier.
func (l UserListState) Users() []UserState {
	out := make([]UserState, 0, len(l.elements))
	for _, id := range l.Identifiers() {
		out = append(out, l.elements[id])
	}
	return out
}

// PartialIdentifiers returns the sorted identifiers of partial users.
func (l UserListState) PartialIdentifiers() []string {
	var out []string
	for _, id := range l.Identifiers() {
		if l.elements[id].Kind == UserPartial {
			out = append(out, id)
		}
	}
	return out
}

// With returns a copy with u inserted or replaced. The receiver is returned
// when u is already present with equal values.
func (l UserListState) With(u UserState) UserListState {
	if cur, ok := l.elements[u.Identifier]; ok && cur.Equal(u) {
		return l
	}
	elements := maps.Clone(l.elements)
	if elements == nil {
		elements = make(map[string]UserState, 1)
	}
	elements[u.Identifier] = u
	return UserListState{elements: elements}
}

// Without returns a copy without the given identifier. The receiver is
// returned when the identifier is absent.
func (l UserListState) Without(identifier string) UserListState {
	if _, ok := l.elements[identifier]; !ok {
		return l
	}
	elements := maps.Clone(l.elements)
	delete(elements, identifier)
	return UserListState{elements: elements}
}

// IsComplete reports whether no user in the list is partial.
func (l UserListState) IsComplete() bool {
	for _, u := range l.elements {
		if !u.IsComplete() {
			return false
		}
	}
	return true
}

// Supplement resolves partial entries from populated entries of other.
// Entries present only in other are not added.
func (l UserListState) Supplement(other UserListState) UserListState {
	var elements map[string]UserState
	for id, u := range l.elements {
		if u.IsComplete() {
			continue
		}
		candidate, ok := other.elements[id]
		if !ok {
			continue
		}
		next := u.Supplement(candidate)
		if next.Equal(u) {
			continue
		}
		if elements == nil {
			elements = maps.Clone(l.elements)
		}
		elements[id] = next
	}
	if elements == nil {
		return l
	}
	return UserListState{elements: elements}
}

// Equal reports value equality.
func (l UserListState) Equal(o UserListState) bool {
	return maps.EqualFunc(l.elements, o.elements, UserState.Equal)
}
