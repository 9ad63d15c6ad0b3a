package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mtaanifix-api/internal/logging"
	"mtaanifix-api/internal/store"
	"mtaanifix-api/pkg/models"
	"mtaanifix-api/pkg/utils"
)

// FundiFinder is the worker-pool lookup used for live candidate lists
type FundiFinder interface {
	FindCandidates(ctx context.Context, query store.FundiQuery) ([]models.Fundi, error)
}

// SessionStore keeps per-customer conversation state
type SessionStore interface {
	GetSession(ctx context.Context, phoneNumber string) (*utils.ConversationSession, error)
	AppendMessage(ctx context.Context, phoneNumber string, entry utils.ConversationEntry) error
	SetOfferedCandidates(ctx context.Context, phoneNumber string, fundiIDs []string) error
}

var bookingNumberRe = regexp.MustCompile(`\d+`)

// Responder composes chat replies from keyword intent detection. Intent
// matching is plain substring containment; anything smarter is out of scope
// for the bot.
type Responder struct {
	fundis   FundiFinder
	sessions SessionStore
	listSize int
	logger   logging.Logger
}

// NewResponder creates a responder over the fundi pool and session store
func NewResponder(fundis FundiFinder, sessions SessionStore, listSize int) *Responder {
	if listSize <= 0 {
		listSize = 3
	}
	return &Responder{
		fundis:   fundis,
		sessions: sessions,
		listSize: listSize,
		logger:   logging.GetGlobalLogger().WithField("component", "bot_responder"),
	}
}

// Reply produces the outgoing text for one inbound customer message
func (r *Responder) Reply(ctx context.Context, from, text string) string {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "plumb") || strings.Contains(lower, "water") || strings.Contains(lower, "pipe") {
		if reply, ok := r.fundiListReply(ctx, from, "plumbing", "🔧 I found these verified plumbers near you:"); ok {
			return reply
		}
	}

	if strings.Contains(lower, "electric") || strings.Contains(lower, "power") || strings.Contains(lower, "wiring") {
		return "⚡ I can help you find qualified electricians! Can you tell me more about your electrical issue? Is it an emergency or planned work?"
	}

	if strings.Contains(lower, "mechanic") || strings.Contains(lower, "car") || strings.Contains(lower, "vehicle") {
		return "🚗 I can connect you with trusted mechanics! What type of vehicle issue are you experiencing? Please share your location too."
	}

	if strings.Contains(lower, "book") && bookingNumberRe.MatchString(lower) {
		return r.bookingReply(ctx, from, lower)
	}

	return "Hello! 👋 Welcome to MtaaniFix!\n\nI can help you find:\n🔧 Plumbers\n⚡ Electricians\n🚗 Mechanics\n💻 ICT Support\n\nWhat service do you need today?"
}

// fundiListReply looks up immediately available, verified fundis for the
// trade and formats a numbered list. A store failure or an empty pool falls
// through to the other intents instead of surfacing an error to the customer.
func (r *Responder) fundiListReply(ctx context.Context, from, specialty, header string) (string, bool) {
	fundis, err := r.fundis.FindCandidates(ctx, store.FundiQuery{
		Specialty:    specialty,
		Availability: []string{models.AvailabilityAvailable},
		Limit:        r.listSize,
	})
	if err != nil {
		r.logger.Warn("Fundi lookup for bot reply failed", map[string]interface{}{
			"specialty": specialty,
			"error":     err.Error(),
		})
		return "", false
	}

	if len(fundis) == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")

	offered := make([]string, 0, len(fundis))
	for i, fundi := range fundis {
		rating := 0.0
		if fundi.Rating != nil {
			rating = *fundi.Rating
		}
		fmt.Fprintf(&b, "%d. *%s*\n", i+1, fundi.FullName)
		fmt.Fprintf(&b, "   ⭐ %.1f/5 rating\n", rating)
		fmt.Fprintf(&b, "   📍 %s\n", fundi.Location)
		fmt.Fprintf(&b, "   💰 KSh %.0f/hour\n", fundi.HourlyRate)
		fmt.Fprintf(&b, "   📱 %s\n\n", fundi.Phone)
		offered = append(offered, fundi.ID)
	}
	b.WriteString("Reply with the number to book, or type 'more info' for details.")

	if err := r.sessions.SetOfferedCandidates(ctx, from, offered); err != nil {
		r.logger.Warn("Failed to record offered candidates", map[string]interface{}{
			"phone_number": from,
			"error":        err.Error(),
		})
	}

	return b.String(), true
}

// bookingReply acknowledges a numbered booking selection, resolving it
// against the candidate list last offered in this conversation when one is
// on record.
func (r *Responder) bookingReply(ctx context.Context, from, lower string) string {
	confirmation := "✅ Great choice! I'm processing your booking. Please confirm:\n\n📅 When do you need the service?\n📍 What's your exact location?\n📝 Any specific details about the job?"

	session, err := r.sessions.GetSession(ctx, from)
	if err != nil || len(session.OfferedFundiIDs) == 0 {
		return confirmation
	}

	selection, err := strconv.Atoi(bookingNumberRe.FindString(lower))
	if err != nil || selection < 1 || selection > len(session.OfferedFundiIDs) {
		return fmt.Sprintf("Please reply with a number between 1 and %d to pick a fundi from the list.", len(session.OfferedFundiIDs))
	}

	return confirmation
}
