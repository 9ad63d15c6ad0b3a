package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtaanifix-api/internal/store"
	"mtaanifix-api/pkg/models"
	"mtaanifix-api/pkg/utils"
)

type fakeFinder struct {
	fundis    []models.Fundi
	err       error
	lastQuery *store.FundiQuery
}

func (f *fakeFinder) FindCandidates(ctx context.Context, query store.FundiQuery) ([]models.Fundi, error) {
	f.lastQuery = &query
	return f.fundis, f.err
}

type fakeSessions struct {
	session      *utils.ConversationSession
	sessionErr   error
	offered      []string
	offeredPhone string
	appended     []utils.ConversationEntry
}

func (s *fakeSessions) GetSession(ctx context.Context, phoneNumber string) (*utils.ConversationSession, error) {
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	if s.session == nil {
		return &utils.ConversationSession{PhoneNumber: phoneNumber}, nil
	}
	return s.session, nil
}

func (s *fakeSessions) AppendMessage(ctx context.Context, phoneNumber string, entry utils.ConversationEntry) error {
	s.appended = append(s.appended, entry)
	return nil
}

func (s *fakeSessions) SetOfferedCandidates(ctx context.Context, phoneNumber string, fundiIDs []string) error {
	s.offeredPhone = phoneNumber
	s.offered = fundiIDs
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func plumberPool() []models.Fundi {
	return []models.Fundi{
		{
			ID:           "fundi-1",
			FullName:     "John Mwangi",
			Phone:        "+254700000001",
			Specialties:  []string{"plumbing"},
			Availability: models.AvailabilityAvailable,
			HourlyRate:   500,
			Rating:       floatPtr(4.8),
			Location:     "Westlands",
		},
		{
			ID:           "fundi-2",
			FullName:     "Grace Njeri",
			Phone:        "+254700000002",
			Specialties:  []string{"plumbing"},
			Availability: models.AvailabilityAvailable,
			HourlyRate:   450,
			Rating:       floatPtr(4.5),
			Location:     "Kilimani",
		},
	}
}

func TestReplyPlumbingIntent(t *testing.T) {
	finder := &fakeFinder{fundis: plumberPool()}
	sessions := &fakeSessions{}
	responder := NewResponder(finder, sessions, 3)

	reply := responder.Reply(context.Background(), "+254711000000", "My kitchen pipe is leaking water")

	assert.Contains(t, reply, "verified plumbers")
	assert.Contains(t, reply, "1. *John Mwangi*")
	assert.Contains(t, reply, "2. *Grace Njeri*")
	assert.Contains(t, reply, "⭐ 4.8/5 rating")
	assert.Contains(t, reply, "KSh 500/hour")
	assert.Contains(t, reply, "Reply with the number to book")

	// Only immediately available fundis are offered in chat
	require.NotNil(t, finder.lastQuery)
	assert.Equal(t, "plumbing", finder.lastQuery.Specialty)
	assert.Equal(t, []string{models.AvailabilityAvailable}, finder.lastQuery.Availability)
	assert.Equal(t, 3, finder.lastQuery.Limit)

	// Offered candidates recorded for later booking replies
	assert.Equal(t, []string{"fundi-1", "fundi-2"}, sessions.offered)
	assert.Equal(t, "+254711000000", sessions.offeredPhone)
}

func TestReplyElectricalIntent(t *testing.T) {
	responder := NewResponder(&fakeFinder{}, &fakeSessions{}, 3)

	reply := responder.Reply(context.Background(), "+254711000000", "The power keeps tripping")

	assert.Contains(t, reply, "electricians")
}

func TestReplyMechanicIntent(t *testing.T) {
	responder := NewResponder(&fakeFinder{}, &fakeSessions{}, 3)

	reply := responder.Reply(context.Background(), "+254711000000", "my car won't start")

	assert.Contains(t, reply, "mechanics")
}

func TestReplyDefaultMenu(t *testing.T) {
	responder := NewResponder(&fakeFinder{}, &fakeSessions{}, 3)

	reply := responder.Reply(context.Background(), "+254711000000", "hi")

	assert.Contains(t, reply, "Welcome to MtaaniFix")
	assert.Contains(t, reply, "Plumbers")
}

func TestReplyPlumbingStoreFailureFallsThrough(t *testing.T) {
	finder := &fakeFinder{err: errors.New("connection refused")}
	responder := NewResponder(finder, &fakeSessions{}, 3)

	reply := responder.Reply(context.Background(), "+254711000000", "need a plumber")

	// A broken store never leaks an error into the chat
	assert.Contains(t, reply, "Welcome to MtaaniFix")
}

func TestReplyPlumbingEmptyPoolFallsThrough(t *testing.T) {
	responder := NewResponder(&fakeFinder{}, &fakeSessions{}, 3)

	reply := responder.Reply(context.Background(), "+254711000000", "need a plumber")

	assert.Contains(t, reply, "Welcome to MtaaniFix")
}

func TestReplyBookingWithOfferedCandidates(t *testing.T) {
	sessions := &fakeSessions{session: &utils.ConversationSession{
		PhoneNumber:     "+254711000000",
		OfferedFundiIDs: []string{"fundi-1", "fundi-2"},
	}}
	responder := NewResponder(&fakeFinder{}, sessions, 3)

	reply := responder.Reply(context.Background(), "+254711000000", "book 2")

	assert.Contains(t, reply, "processing your booking")
}

func TestReplyBookingSelectionOutOfRange(t *testing.T) {
	sessions := &fakeSessions{session: &utils.ConversationSession{
		PhoneNumber:     "+254711000000",
		OfferedFundiIDs: []string{"fundi-1", "fundi-2"},
	}}
	responder := NewResponder(&fakeFinder{}, sessions, 3)

	reply := responder.Reply(context.Background(), "+254711000000", "book 7")

	assert.Contains(t, reply, "between 1 and 2")
}

func TestReplyBookingWithoutSession(t *testing.T) {
	sessions := &fakeSessions{sessionErr: errors.New("redis down")}
	responder := NewResponder(&fakeFinder{}, sessions, 3)

	reply := responder.Reply(context.Background(), "+254711000000", "book 1")

	// Without a recorded list the booking is still acknowledged
	assert.Contains(t, reply, "processing your booking")
}
