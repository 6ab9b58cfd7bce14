package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/sirupsen/logrus"
)

// ErrPasswordRequired is returned by SignIn when the account has a
// two-factor cloud password. Completing password login is out of scope;
// the auth flow surfaces this to the user instead.
var ErrPasswordRequired = errors.New("two-factor password required")

// ErrNotFound is returned by lookups that matched no entity.
var ErrNotFound = errors.New("entity not found")

const dialogsPageLimit = 500

// gotdConn adapts one live gotd client to the Conn boundary.
type gotdConn struct {
	client  *telegram.Client
	api     *tg.Client
	storage *tokenStorage
	log     *logrus.Logger

	mu      sync.Mutex
	dialogs []Dialog // lazy cache for id lookups, one connection scope only
}

func (c *gotdConn) Authorized(ctx context.Context) (bool, error) {
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, err
	}
	return status.Authorized, nil
}

func (c *gotdConn) SendCode(ctx context.Context, phone string) (string, error) {
	sent, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return "", err
	}
	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("unexpected sent code response %T", sent)
	}
	return code.PhoneCodeHash, nil
}

func (c *gotdConn) SignIn(ctx context.Context, phone, code, codeHash string) error {
	_, err := c.client.Auth().SignIn(ctx, phone, code, codeHash)
	if errors.Is(err, auth.ErrPasswordAuthNeeded) {
		return ErrPasswordRequired
	}
	return err
}

func (c *gotdConn) SessionToken(_ context.Context) (string, error) {
	return c.storage.Token()
}

func (c *gotdConn) Dialogs(ctx context.Context) ([]Dialog, error) {
	c.mu.Lock()
	cached := c.dialogs
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	resp, err := c.api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      dialogsPageLimit,
	})
	if err != nil {
		return nil, err
	}

	var (
		rawDialogs []tg.DialogClass
		rawChats   []tg.ChatClass
		rawUsers   []tg.UserClass
	)
	switch d := resp.(type) {
	case *tg.MessagesDialogs:
		rawDialogs, rawChats, rawUsers = d.Dialogs, d.Chats, d.Users
	case *tg.MessagesDialogsSlice:
		rawDialogs, rawChats, rawUsers = d.Dialogs, d.Chats, d.Users
	default:
		return nil, fmt.Errorf("unexpected dialogs response %T", resp)
	}

	users := make(map[int64]Entity, len(rawUsers))
	for _, uc := range rawUsers {
		if u, ok := uc.(*tg.User); ok {
			users[u.ID] = entityFromUser(u)
		}
	}
	chats := make(map[int64]Entity, len(rawChats))
	for _, cc := range rawChats {
		if e := entityFromChat(cc); e != nil {
			chats[e.EntityID()] = e
		}
	}

	out := make([]Dialog, 0, len(rawDialogs))
	for _, dc := range rawDialogs {
		d, ok := dc.(*tg.Dialog)
		if !ok {
			continue // folders carry no entity of their own
		}
		var e Entity
		switch p := d.Peer.(type) {
		case *tg.PeerUser:
			e = users[p.UserID]
		case *tg.PeerChat:
			e = chats[p.ChatID]
		case *tg.PeerChannel:
			e = chats[p.ChannelID]
		}
		if e == nil {
			continue
		}
		out = append(out, Dialog{Entity: e, UnreadCount: d.UnreadCount})
	}

	c.mu.Lock()
	c.dialogs = out
	c.mu.Unlock()
	return out, nil
}

func (c *gotdConn) DialogFilters(ctx context.Context) ([]Filter, error) {
	resp, err := c.api.MessagesGetDialogFilters(ctx)
	if err != nil {
		return nil, err
	}

	filters := make([]Filter, 0, len(resp.Filters))
	for _, fc := range resp.Filters {
		var (
			id    int
			title string
			peers []tg.InputPeerClass
		)
		switch f := fc.(type) {
		case *tg.DialogFilter:
			id, title, peers = f.ID, f.Title, f.IncludePeers
		case *tg.DialogFilterChatlist:
			id, title, peers = f.ID, f.Title, f.IncludePeers
		default:
			continue // the "all chats" pseudo-filter has no peer list
		}

		filter := Filter{ID: id, Title: title}
		for _, ip := range peers {
			switch p := ip.(type) {
			case *tg.InputPeerChannel:
				filter.IncludePeers = append(filter.IncludePeers, PeerChannel{ChannelID: p.ChannelID, AccessHash: p.AccessHash})
			case *tg.InputPeerUser:
				filter.IncludePeers = append(filter.IncludePeers, PeerUser{UserID: p.UserID, AccessHash: p.AccessHash})
			case *tg.InputPeerChat:
				filter.IncludePeers = append(filter.IncludePeers, PeerChat{ChatID: p.ChatID})
			default:
				c.log.WithField("peer", fmt.Sprintf("%T", ip)).Warn("unknown peer type in dialog filter")
			}
		}
		filters = append(filters, filter)
	}
	return filters, nil
}

func (c *gotdConn) ResolvePeer(ctx context.Context, peer Peer) (Entity, error) {
	switch p := peer.(type) {
	case PeerChannel:
		resp, err := c.api.ChannelsGetChannels(ctx, []tg.InputChannelClass{
			&tg.InputChannel{ChannelID: p.ChannelID, AccessHash: p.AccessHash},
		})
		if err != nil {
			return nil, err
		}
		for _, cc := range chatsOf(resp) {
			if e := entityFromChat(cc); e != nil {
				return e, nil
			}
		}
		return nil, ErrNotFound
	case PeerUser:
		users, err := c.api.UsersGetUsers(ctx, []tg.InputUserClass{
			&tg.InputUser{UserID: p.UserID, AccessHash: p.AccessHash},
		})
		if err != nil {
			return nil, err
		}
		for _, uc := range users {
			if u, ok := uc.(*tg.User); ok {
				return entityFromUser(u), nil
			}
		}
		return nil, ErrNotFound
	case PeerChat:
		resp, err := c.api.MessagesGetChats(ctx, []int64{p.ChatID})
		if err != nil {
			return nil, err
		}
		for _, cc := range chatsOf(resp) {
			if e := entityFromChat(cc); e != nil {
				return e, nil
			}
		}
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("unknown peer type %T", peer)
	}
}

// LookupUser resolves a user id via the dialog list, which is the only
// place access hashes are legitimately available from.
func (c *gotdConn) LookupUser(ctx context.Context, id int64) (Entity, error) {
	dialogs, err := c.Dialogs(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range dialogs {
		if u, ok := d.Entity.(*User); ok && u.UserID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (c *gotdConn) LookupChannel(ctx context.Context, id int64) (Entity, error) {
	dialogs, err := c.Dialogs(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range dialogs {
		switch e := d.Entity.(type) {
		case *Channel:
			if e.ChannelID == id {
				return e, nil
			}
		case *Chat:
			if e.ChatID == id {
				return e, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (c *gotdConn) History(ctx context.Context, target Entity, req HistoryRequest) ([]Message, error) {
	hist := &tg.MessagesGetHistoryRequest{
		Peer:     inputPeer(target),
		OffsetID: req.OffsetID,
		Limit:    req.Limit,
	}
	if !req.OffsetDate.IsZero() {
		hist.OffsetDate = int(req.OffsetDate.Unix())
	}

	resp, err := c.api.MessagesGetHistory(ctx, hist)
	if err != nil {
		return nil, err
	}

	var raw []tg.MessageClass
	switch m := resp.(type) {
	case *tg.MessagesMessages:
		raw = m.Messages
	case *tg.MessagesMessagesSlice:
		raw = m.Messages
	case *tg.MessagesChannelMessages:
		raw = m.Messages
	default:
		return nil, fmt.Errorf("unexpected history response %T", resp)
	}

	out := make([]Message, 0, len(raw))
	for _, mc := range raw {
		msg, ok := mc.(*tg.Message)
		if !ok {
			continue // service messages and holes
		}
		out = append(out, Message{
			ID:   msg.ID,
			Text: msg.Message,
			Date: time.Unix(int64(msg.Date), 0),
		})
	}
	return out, nil
}

func inputPeer(e Entity) tg.InputPeerClass {
	switch v := e.(type) {
	case *Channel:
		return &tg.InputPeerChannel{ChannelID: v.ChannelID, AccessHash: v.AccessHash}
	case *Chat:
		return &tg.InputPeerChat{ChatID: v.ChatID}
	case *User:
		return &tg.InputPeerUser{UserID: v.UserID, AccessHash: v.AccessHash}
	default:
		return &tg.InputPeerEmpty{}
	}
}

func entityFromUser(u *tg.User) Entity {
	return &User{
		UserID:     u.ID,
		AccessHash: u.AccessHash,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}

func entityFromChat(cc tg.ChatClass) Entity {
	switch v := cc.(type) {
	case *tg.Chat:
		return &Chat{ChatID: v.ID, Title: v.Title, Participants: v.ParticipantsCount}
	case *tg.Channel:
		participants, _ := v.GetParticipantsCount()
		return &Channel{
			ChannelID:    v.ID,
			AccessHash:   v.AccessHash,
			Title:        v.Title,
			Username:     v.Username,
			Megagroup:    v.Megagroup,
			Participants: participants,
		}
	default:
		return nil
	}
}

func chatsOf(resp tg.MessagesChatsClass) []tg.ChatClass {
	switch m := resp.(type) {
	case *tg.MessagesChats:
		return m.Chats
	case *tg.MessagesChatsSlice:
		return m.Chats
	default:
		return nil
	}
}
