package dialogs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sumgram/sumgram-backend/internal/telegram"
)

type filterConn struct {
	telegram.Conn

	filters    []telegram.Filter
	filtersErr error
	entities   map[int64]telegram.Entity
}

func (f *filterConn) DialogFilters(_ context.Context) ([]telegram.Filter, error) {
	return f.filters, f.filtersErr
}

func (f *filterConn) ResolvePeer(_ context.Context, peer telegram.Peer) (telegram.Entity, error) {
	var id int64
	switch p := peer.(type) {
	case telegram.PeerChannel:
		id = p.ChannelID
	case telegram.PeerUser:
		id = p.UserID
	case telegram.PeerChat:
		id = p.ChatID
	}
	if e, ok := f.entities[id]; ok {
		return e, nil
	}
	return nil, errors.New("peer not found")
}

func TestListFilters_DisplayPrecedence(t *testing.T) {
	conn := &filterConn{
		filters: []telegram.Filter{
			{
				ID:    1,
				Title: "Work",
				IncludePeers: []telegram.Peer{
					telegram.PeerChannel{ChannelID: 10},
					telegram.PeerChannel{ChannelID: 11},
					telegram.PeerUser{UserID: 12},
					telegram.PeerChat{ChatID: 13},
				},
			},
		},
		entities: map[int64]telegram.Entity{
			10: &telegram.Channel{ChannelID: 10, Username: "golangnews", Title: "Go News"},
			11: &telegram.Channel{ChannelID: 11, Title: "Internal"},
			12: &telegram.User{UserID: 12, FirstName: "Alice", LastName: "Smith"},
			13: &telegram.Chat{ChatID: 13, Title: "Standup"},
		},
	}

	groups, filters := NewFilterResolver(testLogger()).ListFilters(context.Background(), conn)

	assert.Equal(t, 1, len(filters))
	assert.Equal(t, []FilterGroup{
		{
			FilterName: "Work",
			Channels: []string{
				"@golangnews",
				"Internal (ID: 11)",
				"Alice Smith (ID: 12)",
				"Standup (ID: 13)",
			},
		},
	}, groups)
}

func TestListFilters_SkipsUnresolvablePeers(t *testing.T) {
	conn := &filterConn{
		filters: []telegram.Filter{
			{
				ID:    2,
				Title: "Mixed",
				IncludePeers: []telegram.Peer{
					telegram.PeerChannel{ChannelID: 10},
					telegram.PeerChannel{ChannelID: 99}, // not resolvable
					telegram.PeerUser{UserID: 12},
				},
			},
		},
		entities: map[int64]telegram.Entity{
			10: &telegram.Channel{ChannelID: 10, Username: "golangnews"},
			12: &telegram.User{UserID: 12, FirstName: "Alice"},
		},
	}

	groups, _ := NewFilterResolver(testLogger()).ListFilters(context.Background(), conn)

	assert.Equal(t, []string{"@golangnews", "Alice (ID: 12)"}, groups[0].Channels)
}

func TestListFilters_TitleFallback(t *testing.T) {
	conn := &filterConn{filters: []telegram.Filter{{ID: 7}}}

	groups, _ := NewFilterResolver(testLogger()).ListFilters(context.Background(), conn)

	assert.Equal(t, "Filter 7", groups[0].FilterName)
	assert.Empty(t, groups[0].Channels)
	assert.NotNil(t, groups[0].Channels)
}

func TestListFilters_FailureYieldsEmptySlices(t *testing.T) {
	conn := &filterConn{filtersErr: errors.New("unavailable")}

	groups, filters := NewFilterResolver(testLogger()).ListFilters(context.Background(), conn)

	assert.Empty(t, groups)
	assert.Empty(t, filters)
	assert.NotNil(t, groups)
	assert.NotNil(t, filters)
}
