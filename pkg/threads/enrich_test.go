package threads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackedThreads() []Thread {
	return Group(
		[]Email{outgoingEmail("m1", "t1", 0), outgoingEmail("m3", "t2", time.Hour)},
		[]Email{incomingEmail("m2", "t1", 2*time.Hour)},
		"alice@x.com",
	)
}

func TestAttachOpenStats(t *testing.T) {
	opened := base.Add(30 * time.Minute)
	stats := []OpenStat{
		{MessageID: "m1", HasTracking: true, IsOpened: true, OpenCount: 3, FirstOpenedAt: &opened},
	}

	got := AttachOpenStats(trackedThreads(), stats)
	require.Len(t, got, 2)

	var t1, t2 *Thread
	for i := range got {
		switch got[i].ID {
		case "t1":
			t1 = &got[i]
		case "t2":
			t2 = &got[i]
		}
	}
	require.NotNil(t, t1)
	require.NotNil(t, t2)

	require.NotNil(t, t1.OpenStats)
	assert.Equal(t, 1, t1.OpenStats.TrackedMessages)
	assert.Equal(t, 1, t1.OpenStats.OpenedMessages)
	assert.Equal(t, 3, t1.OpenStats.TotalOpens)
	require.NotNil(t, t1.OpenStats.FirstOpenedAt)
	assert.Equal(t, opened, *t1.OpenStats.FirstOpenedAt)

	assert.Nil(t, t2.OpenStats, "thread without tracking records stays unannotated")
}

func TestAttachLeadAssociations(t *testing.T) {
	got := AttachLeadAssociations(trackedThreads(), map[string][]string{
		"t1": {"lead-1", "lead-2"},
	})

	for i := range got {
		switch got[i].ID {
		case "t1":
			assert.Equal(t, []string{"lead-1", "lead-2"}, got[i].LeadIDs)
		case "t2":
			assert.Nil(t, got[i].LeadIDs)
		}
	}
}

func TestAttachSentiments(t *testing.T) {
	s := Sentiment{Label: SentimentPositive, Confidence: 0.8, Reasoning: "asked for pricing"}
	got := AttachSentiments(trackedThreads(), map[string]Sentiment{"m2": s})

	for i := range got {
		if got[i].ID != "t1" {
			assert.Nil(t, got[i].Sentiment)
			continue
		}
		require.NotNil(t, got[i].Sentiment)
		assert.Equal(t, s, *got[i].Sentiment)
		incoming := got[i].LatestIncoming()
		require.NotNil(t, incoming)
		require.NotNil(t, incoming.Sentiment)
		assert.Equal(t, s, *incoming.Sentiment)
	}
}

func TestEnrichmentPassesCommute(t *testing.T) {
	stats := []OpenStat{{MessageID: "m1", HasTracking: true, OpenCount: 1}}
	leads := map[string][]string{"t1": {"lead-1"}}
	sentiments := map[string]Sentiment{"m2": {Label: SentimentDoubtful, Confidence: 0.6}}

	ts := trackedThreads()

	a := AttachSentiments(AttachLeadAssociations(AttachOpenStats(ts, stats), leads), sentiments)
	b := AttachOpenStats(AttachSentiments(AttachLeadAssociations(ts, leads), sentiments), stats)
	assert.Equal(t, a, b)
}

func TestEnrichmentNeverDropsThreads(t *testing.T) {
	ts := trackedThreads()
	assert.Len(t, AttachOpenStats(ts, nil), len(ts))
	assert.Len(t, AttachLeadAssociations(ts, nil), len(ts))
	assert.Len(t, AttachSentiments(ts, nil), len(ts))
}

func TestEnrichmentDoesNotMutateInput(t *testing.T) {
	ts := trackedThreads()
	_ = AttachOpenStats(ts, []OpenStat{{MessageID: "m1", HasTracking: true}})
	_ = AttachSentiments(ts, map[string]Sentiment{"m2": {Label: SentimentPositive}})

	for i := range ts {
		assert.Nil(t, ts[i].OpenStats)
		assert.Nil(t, ts[i].Sentiment)
	}
}
