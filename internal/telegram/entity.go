package telegram

import "time"

// Entity is the tagged union over the three conversation participants the
// platform distinguishes. It is produced at the boundary right after
// deserialization so business logic can switch exhaustively instead of
// poking at raw API types.
type Entity interface {
	// EntityID returns the platform identifier of the entity.
	EntityID() int64

	entity()
}

// Channel is a broadcast channel or a supergroup (Megagroup set).
type Channel struct {
	ChannelID    int64
	AccessHash   int64
	Title        string
	Username     string
	Megagroup    bool
	Participants int
}

func (c *Channel) EntityID() int64 { return c.ChannelID }
func (c *Channel) entity()         {}

// Chat is a basic (non-super) group.
type Chat struct {
	ChatID       int64
	Title        string
	Participants int
}

func (c *Chat) EntityID() int64 { return c.ChatID }
func (c *Chat) entity()         {}

// User is an individual account.
type User struct {
	UserID     int64
	AccessHash int64
	FirstName  string
	LastName   string
}

func (u *User) EntityID() int64 { return u.UserID }
func (u *User) entity()         {}

// Peer is a reference to a conversation target as encoded by the
// platform's addressing scheme, before any entity resolution.
type Peer interface {
	peer()
}

type PeerChannel struct {
	ChannelID  int64
	AccessHash int64
}

func (PeerChannel) peer() {}

type PeerUser struct {
	UserID     int64
	AccessHash int64
}

func (PeerUser) peer() {}

type PeerChat struct {
	ChatID int64
}

func (PeerChat) peer() {}

// Dialog is one conversation the account participates in.
type Dialog struct {
	Entity      Entity
	UnreadCount int
}

// Filter is an account-level named grouping of included peers
// ("folders" in the official clients). Read-only.
type Filter struct {
	ID           int
	Title        string
	IncludePeers []Peer
}

// Message is a single message record. Non-text messages carry an empty
// Text.
type Message struct {
	ID   int
	Text string
	Date time.Time
}

// HistoryRequest is one page request against a conversation's history.
// The platform returns messages newest-first; OffsetID/OffsetDate move
// the window toward older messages.
type HistoryRequest struct {
	Limit      int
	OffsetID   int
	OffsetDate time.Time
}
