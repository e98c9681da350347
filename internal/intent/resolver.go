// Package intent maps transcripts to helpdesk replies. A transcript is
// matched against the scenario table first; anything unmatched is escalated
// to a text-generation delegate. Resolution never fails: the caller always
// gets some reply text.
package intent

import (
	"context"
	"log/slog"
	"strings"
)

// FallbackReply is spoken when no scenario matches and delegation is
// unavailable or fails.
const FallbackReply = "I understand your query, connecting you to an agent"

// ReplyDelegate escalates a transcript no scenario covers to an external
// text-generation service.
type ReplyDelegate interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

// Resolver turns one transcript into exactly one reply.
type Resolver struct {
	catalog  *Catalog
	delegate ReplyDelegate // nil disables escalation
}

// NewResolver builds a Resolver around a scenario catalog and an optional
// delegate.
func NewResolver(catalog *Catalog, delegate ReplyDelegate) *Resolver {
	return &Resolver{catalog: catalog, delegate: delegate}
}

// Resolve returns the reply for transcript, with an explanation when a
// local scenario matched. When the delegate answers, its reply wins;
// delegation failure degrades to FallbackReply instead of an error.
func (r *Resolver) Resolve(ctx context.Context, transcript string) (string, *Explanation) {
	if s, ok := r.catalog.Match(transcript); ok && len(s.Replies) > 0 {
		return s.Replies[0], explain(s, transcript)
	}

	if r.delegate != nil {
		reply, err := r.delegate.Reply(ctx, transcript)
		if err == nil && strings.TrimSpace(reply) != "" {
			return reply, nil
		}
		if err != nil {
			slog.Warn("reply delegation failed, using fallback", "error", err)
		}
	}
	return FallbackReply, nil
}
