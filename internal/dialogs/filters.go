package dialogs

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sumgram/sumgram-backend/internal/telegram"
)

// FilterGroup is one dialog filter rendered for presentation: its title
// and the display strings of every resolvable included peer, in
// platform order.
type FilterGroup struct {
	FilterName string   `json:"filter_name"`
	Channels   []string `json:"channels"`
}

// FilterResolver expands the account's dialog filters into
// human-readable channel lists.
type FilterResolver struct {
	log *logrus.Logger
}

func NewFilterResolver(log *logrus.Logger) *FilterResolver {
	return &FilterResolver{log: log}
}

// ListFilters fetches the dialog filters and resolves every included
// peer to a display string. Peers that cannot be resolved are skipped
// with a warning, never rendered as placeholders. A failed filter
// listing yields two empty slices and a log record.
func (r *FilterResolver) ListFilters(ctx context.Context, conn telegram.Conn) ([]FilterGroup, []telegram.Filter) {
	filters, err := conn.DialogFilters(ctx)
	if err != nil {
		r.log.WithError(err).Error("failed to list dialog filters")
		return []FilterGroup{}, []telegram.Filter{}
	}
	r.log.WithField("count", len(filters)).Info("fetched dialog filters")

	groups := make([]FilterGroup, 0, len(filters))
	for _, f := range filters {
		group := FilterGroup{FilterName: filterTitle(f), Channels: []string{}}
		for _, peer := range f.IncludePeers {
			entity, err := conn.ResolvePeer(ctx, peer)
			if err != nil {
				r.log.WithError(err).WithField("filter", group.FilterName).Warn("skipping unresolvable peer")
				continue
			}
			group.Channels = append(group.Channels, displayString(entity))
		}
		groups = append(groups, group)
	}
	return groups, filters
}

func filterTitle(f telegram.Filter) string {
	if f.Title != "" {
		return f.Title
	}
	return fmt.Sprintf("Filter %d", f.ID)
}

// displayString renders a resolved entity:
// channel -> "@handle" when public, else "Title (ID: id)";
// user -> "First Last (ID: id)"; basic group -> "Title (ID: id)".
func displayString(e telegram.Entity) string {
	switch v := e.(type) {
	case *telegram.Channel:
		if v.Username != "" {
			return "@" + v.Username
		}
		return fmt.Sprintf("%s (ID: %d)", v.Title, v.ChannelID)
	case *telegram.User:
		return fmt.Sprintf("%s (ID: %d)", DisplayName(v.FirstName, v.LastName), v.UserID)
	case *telegram.Chat:
		return fmt.Sprintf("%s (ID: %d)", v.Title, v.ChatID)
	default:
		return fmt.Sprintf("(ID: %d)", e.EntityID())
	}
}
