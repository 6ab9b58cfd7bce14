package messages

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/sumgram/sumgram-backend/internal/telegram"
)

type fakeConn struct {
	telegram.Conn

	userCalls    []int64
	channelCalls []int64
	lookupErr    error

	pages    [][]telegram.Message
	requests []telegram.HistoryRequest
}

func (f *fakeConn) LookupUser(_ context.Context, id int64) (telegram.Entity, error) {
	f.userCalls = append(f.userCalls, id)
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return &telegram.User{UserID: id}, nil
}

func (f *fakeConn) LookupChannel(_ context.Context, id int64) (telegram.Entity, error) {
	f.channelCalls = append(f.channelCalls, id)
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return &telegram.Channel{ChannelID: id}, nil
}

func (f *fakeConn) History(_ context.Context, _ telegram.Entity, req telegram.HistoryRequest) ([]telegram.Message, error) {
	call := len(f.requests)
	f.requests = append(f.requests, req)
	if call >= len(f.pages) {
		return nil, errors.New("no more pages")
	}
	return f.pages[call], nil
}

func testResolver() *Resolver {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewResolver(log)
}

func day(d int, hour int) time.Time {
	return time.Date(2024, time.March, d, hour, 0, 0, 0, time.UTC)
}

func TestResolveSource_SignConvention(t *testing.T) {
	r := testResolver()

	conn := &fakeConn{}
	entity := r.ResolveSource(context.Background(), conn, -5)
	assert.Equal(t, &telegram.User{UserID: 5}, entity)
	assert.Equal(t, []int64{5}, conn.userCalls)
	assert.Empty(t, conn.channelCalls)

	conn = &fakeConn{}
	entity = r.ResolveSource(context.Background(), conn, 7)
	assert.Equal(t, &telegram.Channel{ChannelID: 7}, entity)
	assert.Equal(t, []int64{7}, conn.channelCalls)
	assert.Empty(t, conn.userCalls)
}

func TestResolveSource_ZeroIsInvalid(t *testing.T) {
	conn := &fakeConn{}

	entity := testResolver().ResolveSource(context.Background(), conn, 0)

	assert.Nil(t, entity)
	assert.Empty(t, conn.userCalls)
	assert.Empty(t, conn.channelCalls)
}

func TestResolveSource_LookupFailure(t *testing.T) {
	conn := &fakeConn{lookupErr: errors.New("not in dialogs")}

	assert.Nil(t, testResolver().ResolveSource(context.Background(), conn, 7))
	assert.Nil(t, testResolver().ResolveSource(context.Background(), conn, -7))
}

func TestFetchMessages_Last10(t *testing.T) {
	conn := &fakeConn{pages: [][]telegram.Message{{
		{ID: 30, Text: "newest", Date: day(3, 12)},
		{ID: 29, Text: "", Date: day(3, 11)}, // service message, dropped
		{ID: 28, Text: "older", Date: day(3, 10)},
	}}}

	got := testResolver().FetchMessages(context.Background(), conn, &telegram.Channel{ChannelID: 1}, ModeLast10, nil, nil)

	assert.Equal(t, 1, len(conn.requests))
	assert.Equal(t, telegram.HistoryRequest{Limit: 10}, conn.requests[0])
	assert.Equal(t, []int{30, 28}, messageIDs(got))
}

func TestFetchMessages_UnknownModeIsEmpty(t *testing.T) {
	conn := &fakeConn{}

	got := testResolver().FetchMessages(context.Background(), conn, &telegram.Channel{ChannelID: 1}, "all", nil, nil)

	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Empty(t, conn.requests)
}

func TestFetchMessages_PeriodMissingBoundIsEmpty(t *testing.T) {
	conn := &fakeConn{}
	start := day(1, 0)

	got := testResolver().FetchMessages(context.Background(), conn, &telegram.Channel{ChannelID: 1}, ModePeriod, &start, nil)

	assert.Empty(t, got)
	assert.Empty(t, conn.requests)
}

func TestFetchMessages_PeriodBoundsAndOrder(t *testing.T) {
	// Period March 2..3: keep timestamps in [Mar 2 00:00, Mar 4 00:00).
	conn := &fakeConn{pages: [][]telegram.Message{{
		{ID: 50, Text: "too new", Date: day(4, 1)},
		{ID: 49, Text: "evening", Date: day(3, 20)},
		{ID: 48, Text: "", Date: day(3, 12)}, // dropped, non-text
		{ID: 47, Text: "noon", Date: day(2, 12)},
		{ID: 46, Text: "early", Date: day(2, 0)},
		{ID: 45, Text: "too old", Date: day(1, 23)},
		{ID: 44, Text: "never reached", Date: day(1, 10)},
	}}}
	start := day(2, 15)
	end := day(3, 9)

	got := testResolver().FetchMessages(context.Background(), conn, &telegram.Channel{ChannelID: 1}, ModePeriod, &start, &end)

	// Chronological output, nothing before the start bound.
	assert.Equal(t, []int{46, 47, 49}, messageIDs(got))
	for _, m := range got {
		assert.False(t, m.Date.Before(day(2, 0)))
		assert.True(t, m.Date.Before(day(4, 0)))
	}

	// Paging starts at the exclusive end bound and stops at the first
	// too-old timestamp without another request.
	assert.Equal(t, 1, len(conn.requests))
	assert.Equal(t, telegram.HistoryRequest{OffsetDate: day(4, 0), Limit: 100}, conn.requests[0])
}

func TestFetchMessages_PeriodPagesByOffsetID(t *testing.T) {
	first := make([]telegram.Message, 0, 100)
	for i := 0; i < 100; i++ {
		first = append(first, telegram.Message{ID: 300 - i, Text: "m", Date: day(2, 12)})
	}
	second := []telegram.Message{
		{ID: 200, Text: "last", Date: day(2, 10)},
	}
	conn := &fakeConn{pages: [][]telegram.Message{first, second}}
	start := day(2, 0)
	end := day(2, 0)

	got := testResolver().FetchMessages(context.Background(), conn, &telegram.Channel{ChannelID: 1}, ModePeriod, &start, &end)

	assert.Equal(t, 101, len(got))
	assert.Equal(t, 200, got[0].ID)
	assert.Equal(t, 300, got[len(got)-1].ID)

	assert.Equal(t, 2, len(conn.requests))
	assert.Equal(t, telegram.HistoryRequest{OffsetID: 201, Limit: 100}, conn.requests[1])
}

func TestFetchMessages_PeriodPartialResultsOnError(t *testing.T) {
	first := make([]telegram.Message, 0, 100)
	for i := 0; i < 100; i++ {
		first = append(first, telegram.Message{ID: 300 - i, Text: "m", Date: day(2, 12)})
	}
	// Only one page available; the second call fails mid-iteration.
	conn := &fakeConn{pages: [][]telegram.Message{first}}
	start := day(2, 0)
	end := day(2, 0)

	got := testResolver().FetchMessages(context.Background(), conn, &telegram.Channel{ChannelID: 1}, ModePeriod, &start, &end)

	assert.Equal(t, 100, len(got))
	assert.Equal(t, 201, got[0].ID)
	assert.Equal(t, 300, got[len(got)-1].ID)
	assert.Equal(t, 2, len(conn.requests))
}

func messageIDs(msgs []telegram.Message) []int {
	out := make([]int, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}
