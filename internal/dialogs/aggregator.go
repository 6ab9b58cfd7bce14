package dialogs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sumgram/sumgram-backend/internal/telegram"
)

// Entry is one row of the dashboard listing.
type Entry struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	ParticipantsCount int    `json:"participants_count"`
	UnreadCount       int    `json:"unread_count"`
}

// Sort keys accepted by SortEntries.
const (
	SortByParticipants = "participants"
	SortByUnread       = "unread"
)

// Aggregator lists and classifies the account's dialogs.
type Aggregator struct {
	log *logrus.Logger
}

func NewAggregator(log *logrus.Logger) *Aggregator {
	return &Aggregator{log: log}
}

// ListDialogs splits the account's dialogs into channels, groups and
// private chats. Classification is first match wins:
//
//   - channel with a public handle -> channels, as "@handle"
//   - supergroup or basic group    -> groups, title or "Group <id>"
//   - individual user              -> private chats, participants = 1
//
// Channels without a public handle match no rule and are omitted from
// all three lists. A failed listing yields three empty lists and a log
// record, never an error.
func (a *Aggregator) ListDialogs(ctx context.Context, conn telegram.Conn) (channels, groups, privateChats []Entry) {
	channels = []Entry{}
	groups = []Entry{}
	privateChats = []Entry{}

	dialogs, err := conn.Dialogs(ctx)
	if err != nil {
		a.log.WithError(err).Error("failed to list dialogs")
		return channels, groups, privateChats
	}

	for _, d := range dialogs {
		switch e := d.Entity.(type) {
		case *telegram.Channel:
			if e.Username != "" {
				channels = append(channels, Entry{
					ID:                e.ChannelID,
					Name:              "@" + e.Username,
					ParticipantsCount: e.Participants,
					UnreadCount:       d.UnreadCount,
				})
			} else if e.Megagroup {
				groups = append(groups, Entry{
					ID:                e.ChannelID,
					Name:              groupName(e.Title, e.ChannelID),
					ParticipantsCount: e.Participants,
					UnreadCount:       d.UnreadCount,
				})
			}
			// broadcast channels without a handle fall through unlisted
		case *telegram.Chat:
			groups = append(groups, Entry{
				ID:                e.ChatID,
				Name:              groupName(e.Title, e.ChatID),
				ParticipantsCount: e.Participants,
				UnreadCount:       d.UnreadCount,
			})
		case *telegram.User:
			privateChats = append(privateChats, Entry{
				ID:                e.UserID,
				Name:              DisplayName(e.FirstName, e.LastName),
				ParticipantsCount: 1,
				UnreadCount:       d.UnreadCount,
			})
		}
	}

	a.log.WithFields(logrus.Fields{
		"channels":      len(channels),
		"groups":        len(groups),
		"private_chats": len(privateChats),
	}).Info("classified dialogs")

	return channels, groups, privateChats
}

// SortEntries reorders entries in place, descending by the requested
// key. Unrecognized keys leave the platform order untouched. Membership
// never changes.
func SortEntries(entries []Entry, sortBy string) {
	switch sortBy {
	case SortByParticipants:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].ParticipantsCount > entries[j].ParticipantsCount
		})
	case SortByUnread:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].UnreadCount > entries[j].UnreadCount
		})
	}
}

// DisplayName joins first and last name, trimming the gap either may
// leave empty.
func DisplayName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

func groupName(title string, id int64) string {
	if title != "" {
		return title
	}
	return fmt.Sprintf("Group %d", id)
}
