package state

import "fmt"

// VersionSignature records which action produced a VersionedState.
type VersionSignature int

const (
	// SignatureUnsupported marks actions the reducers do not recognise. It
	// never appears on a stored version.
	SignatureUnsupported VersionSignature = iota
	SignatureInitialState
	SignatureAddedToRoom
	SignatureRemovedFromRoom
	SignatureRoomUpdated
	SignatureRoomDeleted
	SignatureUserJoinedRoom
	SignatureUserLeftRoom
	SignatureReadStateUpdated
	SignatureNewMessage
	SignatureMessageDeleted
	SignatureIsTyping
	SignaturePresenceState
	SignatureSubscriptionStateUpdated
	SignatureFetchedUsers
)

var signatureNames = map[VersionSignature]string{
	SignatureUnsupported:              "unsupported",
	SignatureInitialState:             "initialState",
	SignatureAddedToRoom:              "addedToRoom",
	SignatureRemovedFromRoom:          "removedFromRoom",
	SignatureRoomUpdated:              "roomUpdated",
	SignatureRoomDeleted:              "roomDeleted",
	SignatureUserJoinedRoom:           "userJoinedRoom",
	SignatureUserLeftRoom:             "userLeftRoom",
	SignatureReadStateUpdated:         "readStateUpdated",
	SignatureNewMessage:               "newMessage",
	SignatureMessageDeleted:           "messageDeleted",
	SignatureIsTyping:                 "isTyping",
	SignaturePresenceState:            "presenceState",
	SignatureSubscriptionStateUpdated: "subscriptionStateUpdated",
	SignatureFetchedUsers:             "fetchedUsers",
}

// String implements fmt.Stringer.
func (s VersionSignature) String() string {
	if name, ok := signatureNames[s]; ok {
		return name
	}
	return fmt.Sprintf("signature(%d)", int(s))
}

// VersionedState is a published snapshot of the store.
type VersionedState struct {
	Chat      ChatState
	Auxiliary AuxiliaryState
	// Version starts at 0 for the initial empty state and increases by one
	// per recognised dispatched action.
	Version   uint64
	Signature VersionSignature
}

// Master returns the reducible part of the snapshot.
func (v VersionedState) Master() MasterState {
	return MasterState{Chat: v.Chat, Auxiliary: v.Auxiliary}
}

// IsComplete reports whether the chat state is complete.
func (v VersionedState) IsComplete() bool { return v.Master().IsComplete() }

// Supplement fills partial entities from other while keeping the receiver's
// version, signature and auxiliary state.
func (v VersionedState) Supplement(other VersionedState) VersionedState {
	v.Chat = v.Chat.Supplement(other.Chat)
	return v
}

// Equal reports value equality including version and signature.
func (v VersionedState) Equal(o VersionedState) bool {
	return v.Version == o.Version &&
		v.Signature == o.Signature &&
		v.Master().Equal(o.Master())
}
