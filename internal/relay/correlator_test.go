package relay_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/recallbot/internal/config"
	"github.com/edgard/recallbot/internal/database"
	"github.com/edgard/recallbot/internal/gemini"
	"github.com/edgard/recallbot/internal/relay"
	"github.com/edgard/recallbot/internal/sanitize"
)

type fakePending struct {
	parked     map[string]string
	takeLink   string
	takeFound  bool
	takeErr    error
	parkErr    error
	takeCalled bool
}

func (f *fakePending) Park(_ context.Context, sender, link string) error {
	if f.parkErr != nil {
		return f.parkErr
	}
	if f.parked == nil {
		f.parked = make(map[string]string)
	}
	f.parked[sender] = link
	return nil
}

func (f *fakePending) TakeIfLive(_ context.Context, _ string) (string, bool, error) {
	f.takeCalled = true
	return f.takeLink, f.takeFound, f.takeErr
}

func (f *fakePending) PurgeExpired(_ context.Context) (int, error) { return 0, nil }

func (f *fakePending) Close() error { return nil }

type fakeAI struct {
	classification  gemini.Classification
	classifyErr     error
	classifiedText  string
	classifyCalled  bool
	answerText      string
	answerErr       error
	answerCalled    bool
	answerQuestion  string
	answerItemCount int
}

func (f *fakeAI) Classify(_ context.Context, message string) (gemini.Classification, error) {
	f.classifyCalled = true
	f.classifiedText = message
	return f.classification, f.classifyErr
}

func (f *fakeAI) Answer(_ context.Context, question string, items []database.SavedItem) (string, error) {
	f.answerCalled = true
	f.answerQuestion = question
	f.answerItemCount = len(items)
	return f.answerText, f.answerErr
}

type fakeItems struct {
	inserted  []*database.SavedItem
	insertErr error
	listed    []database.SavedItem
	listErr   error
}

func (f *fakeItems) Ping(_ context.Context) error { return nil }

func (f *fakeItems) InsertItem(_ context.Context, item *database.SavedItem) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, item)
	return int64(len(f.inserted)), nil
}

func (f *fakeItems) ListItems(_ context.Context) ([]database.SavedItem, error) {
	return f.listed, f.listErr
}

func (f *fakeItems) CountItems(_ context.Context) (int64, error) {
	return int64(len(f.listed)), f.listErr
}

func (f *fakeItems) RunSQLMaintenance(_ context.Context) error { return nil }

func testMessages() config.MessagesConfig {
	return config.MessagesConfig{
		Ack:          "✓",
		NothingSaved: "You haven't saved anything yet! Text me links to save them.",
		GeneralError: "An error occurred. Please try again later.",
		Health:       "RecallBot is running!",
	}
}

func newTestCorrelator(p *fakePending, ai *fakeAI, items *fakeItems) *relay.Correlator {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return relay.NewCorrelator(log, p, ai, items, sanitize.NewSMSPolicy(), testMessages())
}

func TestLinkOnlyMessageParksAndAcks(t *testing.T) {
	t.Parallel()

	p := &fakePending{}
	ai := &fakeAI{}
	c := newTestCorrelator(p, ai, &fakeItems{})

	reply, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "https://netflix.com/title/123",
		Sender: "+15551234567",
	})
	require.NoError(t, err)

	assert.Equal(t, "✓", reply)
	assert.Equal(t, "https://netflix.com/title/123", p.parked["+15551234567"])
	assert.False(t, ai.classifyCalled, "link-only messages must not reach classification")
	assert.False(t, p.takeCalled, "parking must not consume pending state")
}

func TestFollowUpTextAttachesPendingLink(t *testing.T) {
	t.Parallel()

	p := &fakePending{takeLink: "https://netflix.com/title/123", takeFound: true}
	ai := &fakeAI{classification: gemini.Classification{
		Type:     gemini.IntentSave,
		Category: database.CategoryContent,
		Fields:   gemini.SaveFields{Title: "Some Show", Platform: "netflix"},
	}}
	items := &fakeItems{}
	c := newTestCorrelator(p, ai, items)

	reply, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "watch this show",
		Sender: "+15551234567",
	})
	require.NoError(t, err)

	assert.Equal(t, "watch this show https://netflix.com/title/123", ai.classifiedText)
	require.Len(t, items.inserted, 1)
	saved := items.inserted[0]
	assert.Equal(t, "https://netflix.com/title/123", saved.OriginalURL)
	assert.Equal(t, "watch this show https://netflix.com/title/123", saved.OriginalMessage)
	assert.Equal(t, "+15551234567", saved.SavedBy)
	assert.Equal(t, "✓ Saved: Some Show (netflix)", reply)
}

func TestExpiredPendingLinkIsNotAttached(t *testing.T) {
	t.Parallel()

	p := &fakePending{takeFound: false}
	ai := &fakeAI{classification: gemini.Classification{
		Type:     gemini.IntentSave,
		Category: database.CategoryFacts,
		Fields:   gemini.SaveFields{Title: "Show tip", Caption: "watch this show"},
	}}
	items := &fakeItems{}
	c := newTestCorrelator(p, ai, items)

	_, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "watch this show",
		Sender: "+15551234567",
	})
	require.NoError(t, err)

	assert.True(t, p.takeCalled)
	assert.Equal(t, "watch this show", ai.classifiedText)
	require.Len(t, items.inserted, 1)
	assert.Empty(t, items.inserted[0].OriginalURL)
}

func TestPlainSaveWithoutPending(t *testing.T) {
	t.Parallel()

	p := &fakePending{}
	ai := &fakeAI{classification: gemini.Classification{
		Type:     gemini.IntentSave,
		Category: database.CategoryFood,
		Fields:   gemini.SaveFields{Title: "Lemon pasta", Ingredients: "pasta, lemon, butter"},
	}}
	items := &fakeItems{}
	c := newTestCorrelator(p, ai, items)

	reply, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "Try the lemon pasta recipe, ingredients: pasta, lemon, butter",
		Sender: "+15550001111",
	})
	require.NoError(t, err)

	assert.Equal(t, "✓ Saved recipe: Lemon pasta", reply)
	require.Len(t, items.inserted, 1)
	assert.Equal(t, database.CategoryFood, items.inserted[0].Category)
	assert.Equal(t, "pasta, lemon, butter", items.inserted[0].Ingredients)
}

func TestSaveExtractsURLFromMessageBody(t *testing.T) {
	t.Parallel()

	p := &fakePending{}
	ai := &fakeAI{classification: gemini.Classification{
		Type:     gemini.IntentSave,
		Category: database.CategoryContent,
		Fields:   gemini.SaveFields{Title: "Pasta video"},
	}}
	items := &fakeItems{}
	c := newTestCorrelator(p, ai, items)

	_, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "great pasta video https://youtube.com/watch?v=abc",
		Sender: "+15550001111",
	})
	require.NoError(t, err)

	require.Len(t, items.inserted, 1)
	assert.Equal(t, "https://youtube.com/watch?v=abc", items.inserted[0].OriginalURL)
}

func TestPendingLinkOverridesEmbeddedURL(t *testing.T) {
	t.Parallel()

	p := &fakePending{takeLink: "https://tiktok.com/@user/video/1", takeFound: true}
	ai := &fakeAI{classification: gemini.Classification{
		Type:     gemini.IntentSave,
		Category: database.CategoryContent,
		Fields:   gemini.SaveFields{Title: "Dance video"},
	}}
	items := &fakeItems{}
	c := newTestCorrelator(p, ai, items)

	_, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "like this one https://youtube.com/watch?v=abc",
		Sender: "+15550001111",
	})
	require.NoError(t, err)

	require.Len(t, items.inserted, 1)
	assert.Equal(t, "https://tiktok.com/@user/video/1", items.inserted[0].OriginalURL)
}

func TestQueryAnswersFromSavedItems(t *testing.T) {
	t.Parallel()

	p := &fakePending{}
	ai := &fakeAI{
		classification: gemini.Classification{Type: gemini.IntentQuery, Question: "what shows did I save?"},
		answerText:     "You saved Some Show on netflix: https://netflix.com/title/123",
	}
	items := &fakeItems{listed: []database.SavedItem{
		{ID: 1, Category: database.CategoryContent, Title: "Some Show"},
		{ID: 2, Category: database.CategoryFood, Title: "Lemon pasta"},
	}}
	c := newTestCorrelator(p, ai, items)

	reply, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "what shows did I save?",
		Sender: "+15550001111",
	})
	require.NoError(t, err)

	assert.True(t, ai.answerCalled)
	assert.Equal(t, "what shows did I save?", ai.answerQuestion)
	assert.Equal(t, 2, ai.answerItemCount)
	assert.Equal(t, "You saved Some Show on netflix: https://netflix.com/title/123", reply)
	assert.Empty(t, items.inserted)
}

func TestQueryAnswerIsFlattenedToPlainText(t *testing.T) {
	t.Parallel()

	p := &fakePending{}
	ai := &fakeAI{
		classification: gemini.Classification{Type: gemini.IntentQuery, Question: "what did I save?"},
		answerText:     "You saved **Some Show** on netflix",
	}
	items := &fakeItems{listed: []database.SavedItem{{ID: 1, Category: database.CategoryContent}}}
	c := newTestCorrelator(p, ai, items)

	reply, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "what did I save?",
		Sender: "+15550001111",
	})
	require.NoError(t, err)

	assert.Equal(t, "You saved Some Show on netflix", reply)
}

func TestQueryWithEmptyCollectionSkipsAnswerGateway(t *testing.T) {
	t.Parallel()

	p := &fakePending{}
	ai := &fakeAI{classification: gemini.Classification{Type: gemini.IntentQuery, Question: "anything saved?"}}
	c := newTestCorrelator(p, ai, &fakeItems{})

	reply, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "anything saved?",
		Sender: "+15550001111",
	})
	require.NoError(t, err)

	assert.Equal(t, testMessages().NothingSaved, reply)
	assert.False(t, ai.answerCalled, "answer gateway must not run against an empty collection")
}

func TestUnparseableClassificationDegradesToFactsSave(t *testing.T) {
	t.Parallel()

	p := &fakePending{takeLink: "https://example.com/thing", takeFound: true}
	ai := &fakeAI{classification: gemini.Classification{Type: gemini.IntentUnparseable}}
	items := &fakeItems{}
	c := newTestCorrelator(p, ai, items)

	reply, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "blorp",
		Sender: "+15550001111",
	})
	require.NoError(t, err)

	require.Len(t, items.inserted, 1)
	saved := items.inserted[0]
	assert.Equal(t, database.CategoryFacts, saved.Category)
	assert.Equal(t, "blorp https://example.com/thing", saved.Caption)
	assert.Equal(t, "https://example.com/thing", saved.OriginalURL)
	assert.Equal(t, "✓ Saved: blorp https://example.com/thing...", reply)
}

func TestClassifyErrorPropagates(t *testing.T) {
	t.Parallel()

	p := &fakePending{}
	ai := &fakeAI{classifyErr: errors.New("api unreachable")}
	items := &fakeItems{}
	c := newTestCorrelator(p, ai, items)

	_, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "remember the milk",
		Sender: "+15550001111",
	})
	require.Error(t, err)
	assert.Empty(t, items.inserted)
}

func TestParkErrorPropagates(t *testing.T) {
	t.Parallel()

	p := &fakePending{parkErr: errors.New("store down")}
	c := newTestCorrelator(p, &fakeAI{}, &fakeItems{})

	_, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "https://example.com/a",
		Sender: "+15550001111",
	})
	require.Error(t, err)
}

func TestInsertErrorPropagates(t *testing.T) {
	t.Parallel()

	p := &fakePending{}
	ai := &fakeAI{classification: gemini.Classification{
		Type:     gemini.IntentSave,
		Category: database.CategoryFacts,
		Fields:   gemini.SaveFields{Caption: "a fact"},
	}}
	items := &fakeItems{insertErr: errors.New("disk full")}
	c := newTestCorrelator(p, ai, items)

	_, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "a fact",
		Sender: "+15550001111",
	})
	require.Error(t, err)
}

func TestAnswerErrorPropagates(t *testing.T) {
	t.Parallel()

	p := &fakePending{}
	ai := &fakeAI{
		classification: gemini.Classification{Type: gemini.IntentQuery, Question: "q"},
		answerErr:      errors.New("api unreachable"),
	}
	items := &fakeItems{listed: []database.SavedItem{{ID: 1, Category: database.CategoryFacts}}}
	c := newTestCorrelator(p, ai, items)

	_, err := c.HandleMessage(context.Background(), relay.InboundMessage{
		Body:   "q",
		Sender: "+15550001111",
	})
	require.Error(t, err)
}
