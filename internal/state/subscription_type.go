package state

import "fmt"

// SubscriptionKind selects which server stream a subscription follows.
type SubscriptionKind int

const (
	// SubscriptionUser is the current user's stream (rooms, memberships,
	// read state).
	SubscriptionUser SubscriptionKind = iota
	// SubscriptionRoom is one room's message stream.
	SubscriptionRoom
	// SubscriptionPresence is one user's presence stream.
	SubscriptionPresence
)

// String implements fmt.Stringer.
func (k SubscriptionKind) String() string {
	switch k {
	case SubscriptionUser:
		return "user"
	case SubscriptionRoom:
		return "room"
	case SubscriptionPresence:
		return "presence"
	default:
		return fmt.Sprintf("subscriptionKind(%d)", int(k))
	}
}

// SubscriptionType identifies a subscription. It is comparable and is used as
// a map key by the subscription manager and by AuxiliaryState.
type SubscriptionType struct {
	Kind SubscriptionKind
	// Identifier is the room or user identifier for room and presence
	// subscriptions, and empty for the user subscription.
	Identifier string
}

// UserSubscription returns the type of the current user's subscription.
func UserSubscription() SubscriptionType {
	return SubscriptionType{Kind: SubscriptionUser}
}

// RoomSubscription returns the type of a room subscription.
func RoomSubscription(roomIdentifier string) SubscriptionType {
	return SubscriptionType{Kind: SubscriptionRoom, Identifier: roomIdentifier}
}

// PresenceSubscription returns the type of a user presence subscription.
func PresenceSubscription(userIdentifier string) SubscriptionType {
	return SubscriptionType{Kind: SubscriptionPresence, Identifier: userIdentifier}
}

// String implements fmt.Stringer.
func (t SubscriptionType) String() string {
	switch t.Kind {
	case SubscriptionUser:
		return "user"
	case SubscriptionRoom:
		return fmt.Sprintf("room(%s)", t.Identifier)
	case SubscriptionPresence:
		return fmt.Sprintf("presence(%s)", t.Identifier)
	default:
		return fmt.Sprintf("subscription(%d,%s)", int(t.Kind), t.Identifier)
	}
}
