package dialogs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/sumgram/sumgram-backend/internal/telegram"
)

type fakeConn struct {
	telegram.Conn

	dialogs    []telegram.Dialog
	dialogsErr error
}

func (f *fakeConn) Dialogs(_ context.Context) ([]telegram.Dialog, error) {
	return f.dialogs, f.dialogsErr
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testDialogs() []telegram.Dialog {
	return []telegram.Dialog{
		{Entity: &telegram.Channel{ChannelID: 1, Username: "news", Title: "News", Participants: 5000}, UnreadCount: 3},
		{Entity: &telegram.Channel{ChannelID: 2, Title: "Private Broadcast", Participants: 10}, UnreadCount: 9},
		{Entity: &telegram.Channel{ChannelID: 3, Title: "Devs", Megagroup: true, Participants: 200}, UnreadCount: 1},
		{Entity: &telegram.Chat{ChatID: 4, Title: "Family", Participants: 6}, UnreadCount: 0},
		{Entity: &telegram.Chat{ChatID: 5, Participants: 2}, UnreadCount: 7},
		{Entity: &telegram.User{UserID: 6, FirstName: "Alice", LastName: "Smith"}, UnreadCount: 2},
		{Entity: &telegram.User{UserID: 7, FirstName: "Bob"}, UnreadCount: 0},
	}
}

func TestListDialogs_Classification(t *testing.T) {
	agg := NewAggregator(testLogger())
	conn := &fakeConn{dialogs: testDialogs()}

	channels, groups, privateChats := agg.ListDialogs(context.Background(), conn)

	// Every dialog lands in exactly one bucket; the handle-less
	// broadcast channel (id 2) lands in none.
	assert.Equal(t, 1, len(channels))
	assert.Equal(t, 3, len(groups))
	assert.Equal(t, 2, len(privateChats))

	assert.Equal(t, Entry{ID: 1, Name: "@news", ParticipantsCount: 5000, UnreadCount: 3}, channels[0])

	assert.Equal(t, "Devs", groups[0].Name)
	assert.Equal(t, "Family", groups[1].Name)
	assert.Equal(t, "Group 5", groups[2].Name) // title fallback

	assert.Equal(t, "Alice Smith", privateChats[0].Name)
	assert.Equal(t, "Bob", privateChats[1].Name)
	assert.Equal(t, 1, privateChats[0].ParticipantsCount)
	assert.Equal(t, 1, privateChats[1].ParticipantsCount)
}

func TestListDialogs_ExcludedChannelInNoBucket(t *testing.T) {
	agg := NewAggregator(testLogger())
	conn := &fakeConn{dialogs: testDialogs()}

	channels, groups, privateChats := agg.ListDialogs(context.Background(), conn)

	for _, entries := range [][]Entry{channels, groups, privateChats} {
		for _, e := range entries {
			assert.NotEqual(t, int64(2), e.ID)
		}
	}
}

func TestListDialogs_FailureYieldsEmptyLists(t *testing.T) {
	agg := NewAggregator(testLogger())
	conn := &fakeConn{dialogsErr: errors.New("flood wait")}

	channels, groups, privateChats := agg.ListDialogs(context.Background(), conn)

	assert.Empty(t, channels)
	assert.Empty(t, groups)
	assert.Empty(t, privateChats)
	assert.NotNil(t, channels)
	assert.NotNil(t, groups)
	assert.NotNil(t, privateChats)
}

func TestSortEntries_ByParticipants(t *testing.T) {
	entries := []Entry{
		{ID: 1, ParticipantsCount: 10},
		{ID: 2, ParticipantsCount: 300},
		{ID: 3, ParticipantsCount: 50},
	}

	SortEntries(entries, SortByParticipants)

	assert.Equal(t, []int64{2, 3, 1}, ids(entries))
	for i := 0; i < len(entries)-1; i++ {
		assert.GreaterOrEqual(t, entries[i].ParticipantsCount, entries[i+1].ParticipantsCount)
	}
}

func TestSortEntries_ByUnread(t *testing.T) {
	entries := []Entry{
		{ID: 1, UnreadCount: 4},
		{ID: 2, UnreadCount: 0},
		{ID: 3, UnreadCount: 11},
	}

	SortEntries(entries, SortByUnread)

	assert.Equal(t, []int64{3, 1, 2}, ids(entries))
}

func TestSortEntries_UnknownKeyPreservesOrder(t *testing.T) {
	entries := []Entry{{ID: 9}, {ID: 1}, {ID: 5}}

	SortEntries(entries, "alphabetical")

	assert.Equal(t, []int64{9, 1, 5}, ids(entries))
}

func TestSortEntries_NeverChangesMembership(t *testing.T) {
	entries := []Entry{
		{ID: 1, ParticipantsCount: 1, UnreadCount: 2},
		{ID: 2, ParticipantsCount: 2, UnreadCount: 1},
		{ID: 3, ParticipantsCount: 3, UnreadCount: 3},
	}

	SortEntries(entries, SortByParticipants)
	SortEntries(entries, SortByUnread)

	assert.ElementsMatch(t, []int64{1, 2, 3}, ids(entries))
}

func ids(entries []Entry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
