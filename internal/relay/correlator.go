// Package relay implements the message-correlation core. It reconciles
// link-only messages with the follow-up text that gives them context, routes
// the combined message through classification, and produces the reply text.
package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/recallbot/internal/config"
	"github.com/edgard/recallbot/internal/database"
	"github.com/edgard/recallbot/internal/gemini"
	"github.com/edgard/recallbot/internal/linkdetect"
	"github.com/edgard/recallbot/internal/pending"
	"github.com/edgard/recallbot/internal/sanitize"
)

// InboundMessage is one raw message handed over by the transport.
type InboundMessage struct {
	// Body is the message text as received.
	Body string
	// Sender is the channel address the message came from.
	Sender string
	// MessageID is the transport's identifier for this message, used only
	// for log correlation.
	MessageID string
}

// Correlator decides, per inbound message, whether to park a link, attach a
// parked link to new text, save, or answer a question. All mutable state
// lives in the injected stores; the Correlator itself is stateless and safe
// for concurrent use.
type Correlator struct {
	log       *slog.Logger
	pending   pending.Store
	ai        gemini.Client
	items     database.Store
	sanitizer *sanitize.Policy
	messages  config.MessagesConfig
}

// NewCorrelator creates a Correlator wired to the given stores and gateways.
func NewCorrelator(log *slog.Logger, pendingStore pending.Store, aiClient gemini.Client, itemStore database.Store, sanitizer *sanitize.Policy, messages config.MessagesConfig) *Correlator {
	return &Correlator{
		log:       log.With("component", "correlator"),
		pending:   pendingStore,
		ai:        aiClient,
		items:     itemStore,
		sanitizer: sanitizer,
		messages:  messages,
	}
}

// HandleMessage processes one inbound message end to end and returns the
// reply text. Errors mean the message could not be handled at all; the
// transport layer decides how to report that to the sender.
func (c *Correlator) HandleMessage(ctx context.Context, msg InboundMessage) (string, error) {
	detection := linkdetect.Detect(msg.Body)

	// A bare link is parked and acknowledged without classification; the
	// follow-up message supplies the context.
	if detection.IsLinkOnly {
		if err := c.pending.Park(ctx, msg.Sender, detection.Link); err != nil {
			return "", fmt.Errorf("failed to park pending link: %w", err)
		}
		c.log.InfoContext(ctx, "Parked pending link", "sender", msg.Sender, "message_id", msg.MessageID)
		return c.messages.Ack, nil
	}

	// Every non-link-only message consumes the sender's pending link if one
	// is still live, even when it carries a link of its own.
	combined := msg.Body
	var urlOverride string

	pendingLink, found, err := c.pending.TakeIfLive(ctx, msg.Sender)
	if err != nil {
		return "", fmt.Errorf("failed to take pending link: %w", err)
	}
	if found {
		combined = msg.Body + " " + pendingLink
		urlOverride = pendingLink
		c.log.InfoContext(ctx, "Attached pending link to message", "sender", msg.Sender, "message_id", msg.MessageID)
	}

	result, err := c.ai.Classify(ctx, combined)
	if err != nil {
		return "", fmt.Errorf("failed to classify message: %w", err)
	}

	switch result.Type {
	case gemini.IntentQuery:
		return c.handleQuery(ctx, result.Question)
	case gemini.IntentSave:
		return c.handleSave(ctx, msg.Sender, combined, urlOverride, result.Category, result.Fields)
	default:
		// Whatever the classifier could not make sense of is still worth
		// keeping, so it degrades to a facts save rather than being dropped.
		c.log.InfoContext(ctx, "Message unparseable, saving as facts", "sender", msg.Sender, "message_id", msg.MessageID)
		return c.handleSave(ctx, msg.Sender, combined, urlOverride, database.CategoryFacts, gemini.SaveFields{Caption: combined})
	}
}

func (c *Correlator) handleQuery(ctx context.Context, question string) (string, error) {
	items, err := c.items.ListItems(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list saved items: %w", err)
	}

	if len(items) == 0 {
		c.log.InfoContext(ctx, "Query against empty collection, skipping answer generation")
		return c.messages.NothingSaved, nil
	}

	answer, err := c.ai.Answer(ctx, question, items)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	// Model output tends to carry markdown; SMS is plain text.
	return c.sanitizer.SanitizeText(answer), nil
}

func (c *Correlator) handleSave(ctx context.Context, sender, combined, urlOverride, category string, fields gemini.SaveFields) (string, error) {
	originalURL := urlOverride
	if originalURL == "" {
		originalURL = linkdetect.FirstURL(combined)
	}

	item := &database.SavedItem{
		Category:        category,
		Title:           fields.Title,
		Platform:        fields.Platform,
		Ingredients:     fields.Ingredients,
		Location:        fields.Location,
		EventDate:       fields.EventDate,
		Caption:         fields.Caption,
		OriginalURL:     originalURL,
		OriginalMessage: combined,
		SavedBy:         sender,
	}

	id, err := c.items.InsertItem(ctx, item)
	if err != nil {
		return "", fmt.Errorf("failed to save item: %w", err)
	}
	c.log.InfoContext(ctx, "Item saved", "item_id", id, "category", category, "sender", sender)

	return FormatConfirmation(category, fields), nil
}
