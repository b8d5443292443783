package threads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func outgoingEmail(id, threadID string, offset time.Duration) Email {
	return Email{
		ID:       id,
		ThreadID: threadID,
		From:     "Alice <alice@x.com>",
		To:       "bob@y.com",
		Subject:  "Quick question",
		Date:     base.Add(offset),
		LabelIDs: []string{"SENT"},
	}
}

func incomingEmail(id, threadID string, offset time.Duration, labels ...string) Email {
	return Email{
		ID:       id,
		ThreadID: threadID,
		From:     "Bob <bob@y.com>",
		To:       "alice@x.com",
		Subject:  "Re: Quick question",
		Date:     base.Add(offset),
		LabelIDs: append([]string{LabelInbox}, labels...),
	}
}

func TestGroupEndToEnd(t *testing.T) {
	sent := []Email{{
		ID: "m1", ThreadID: "t1",
		From: "me@x.com", To: "bob@y.com",
		Date: base,
	}}
	replies := []Email{{
		ID: "m2", ThreadID: "t1",
		From: "bob@y.com", To: "me@x.com",
		Date:     base.Add(time.Hour),
		LabelIDs: []string{LabelUnread},
	}}

	grouped := Group(sent, replies, "me@x.com")
	require.Len(t, grouped, 1)

	th := grouped[0]
	assert.Equal(t, "t1", th.ID)
	require.Len(t, th.Messages, 2)
	assert.Equal(t, "m1", th.Messages[0].ID)
	assert.Equal(t, "m2", th.Messages[1].ID)
	assert.False(t, th.AwaitingReply)
	assert.True(t, th.HasUnreadReply)
	assert.Equal(t, "bob@y.com", th.ContactEmail)
}

func TestGroupEmptyInputs(t *testing.T) {
	grouped := Group(nil, nil, "me@x.com")
	assert.Empty(t, grouped)
	assert.Equal(t, Stats{}, Aggregate(grouped))
}

func TestGroupIdempotent(t *testing.T) {
	sent := []Email{
		outgoingEmail("m1", "t1", 0),
		outgoingEmail("m3", "t2", 2*time.Hour),
	}
	replies := []Email{
		incomingEmail("m2", "t1", time.Hour, LabelUnread),
		incomingEmail("m4", "t2", 3*time.Hour),
	}

	first := Group(sent, replies, "alice@x.com")

	// Same inputs, reversed internal order.
	reversedSent := []Email{sent[1], sent[0]}
	reversedReplies := []Email{replies[1], replies[0]}
	second := Group(reversedSent, reversedReplies, "alice@x.com")

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		require.Equal(t, len(first[i].Messages), len(second[i].Messages))
		for j := range first[i].Messages {
			assert.Equal(t, first[i].Messages[j].ID, second[i].Messages[j].ID)
		}
		assert.Equal(t, first[i].HasUnreadReply, second[i].HasUnreadReply)
		assert.Equal(t, first[i].AwaitingReply, second[i].AwaitingReply)
	}
}

func TestGroupDedupKeepsLatest(t *testing.T) {
	early := incomingEmail("m2", "t1", time.Hour)
	late := incomingEmail("m2", "t1", 2*time.Hour)
	late.Snippet = "refetched"

	grouped := Group([]Email{outgoingEmail("m1", "t1", 0)}, []Email{early, late}, "alice@x.com")
	require.Len(t, grouped, 1)
	require.Len(t, grouped[0].Messages, 2)

	kept := grouped[0].Messages[1]
	assert.Equal(t, "m2", kept.ID)
	assert.Equal(t, "refetched", kept.Snippet)
	assert.Equal(t, base.Add(2*time.Hour), kept.Date)
}

func TestOutgoingDetection(t *testing.T) {
	assert.True(t, IsOutgoingAddress("Alice <alice@x.com>", "alice@x.com"))
	assert.True(t, IsOutgoingAddress("ALICE@X.COM", "alice@x.com"))
	assert.False(t, IsOutgoingAddress("Bob <bob@y.com>", "alice@x.com"))
	assert.False(t, IsOutgoingAddress("Bob <bob@y.com>", ""))
}

func TestAwaitingReply(t *testing.T) {
	sent := []Email{outgoingEmail("m1", "t1", 0)}

	grouped := Group(sent, nil, "alice@x.com")
	require.Len(t, grouped, 1)
	assert.True(t, grouped[0].AwaitingReply)

	grouped = Group(sent, []Email{incomingEmail("m2", "t1", time.Hour)}, "alice@x.com")
	require.Len(t, grouped, 1)
	assert.False(t, grouped[0].AwaitingReply)
}

func TestGroupUnparsableDatesSortEarliest(t *testing.T) {
	undated := incomingEmail("m0", "t1", 0)
	undated.Date = time.Time{}

	grouped := Group([]Email{outgoingEmail("m1", "t1", 0)}, []Email{undated}, "alice@x.com")
	require.Len(t, grouped, 1)
	assert.Equal(t, "m0", grouped[0].Messages[0].ID)
}

func TestGroupEntirelyOutgoingThread(t *testing.T) {
	grouped := Group([]Email{outgoingEmail("m1", "t1", 0)}, nil, "alice@x.com")
	require.Len(t, grouped, 1)
	assert.Equal(t, "bob@y.com", grouped[0].ContactEmail)
}

func TestGroupSubjectFromLatestMessage(t *testing.T) {
	first := outgoingEmail("m1", "t1", 0)
	second := incomingEmail("m2", "t1", time.Hour)
	second.Subject = "Re: Quick question (updated)"

	grouped := Group([]Email{first}, []Email{second}, "alice@x.com")
	require.Len(t, grouped, 1)
	assert.Equal(t, "Re: Quick question (updated)", grouped[0].Subject)
}

func TestAggregate(t *testing.T) {
	sent := []Email{
		outgoingEmail("m1", "t1", 0),
		outgoingEmail("m3", "t2", time.Hour),
	}
	replies := []Email{
		incomingEmail("m2", "t1", 2*time.Hour, LabelUnread),
	}

	stats := Aggregate(Group(sent, replies, "alice@x.com"))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.WithReplies)
	assert.Equal(t, 1, stats.AwaitingReply)
	assert.Equal(t, 1, stats.Unread)
}
