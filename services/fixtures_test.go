package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	"tripsplit-backend/database"
	"tripsplit-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	ctx      context.Context
	db       *gorm.DB
	owner    models.User
	friend   models.User
	outsider models.User
	trip     *models.Trip
}

func createUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	user, err := FindOrCreateUser(context.Background(), db, "uid-"+name+"-"+uuid.NewString(), name+"@example.com", name)
	require.NoError(t, err)
	return *user
}

// newFixture creates a USD trip owned by "owner" with "friend" as a member.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.OpenTestDB(t)
	f := &fixture{ctx: context.Background(), db: db}
	f.owner = createUser(t, db, "owner")
	f.friend = createUser(t, db, "friend")
	f.outsider = createUser(t, db, "outsider")

	trip, err := CreateTrip(f.ctx, db, f.owner.ID, models.CreateTripRequest{Name: "Lisbon", BaseCurrency: "USD"})
	require.NoError(t, err)
	_, err = AddMemberByEmail(f.ctx, db, trip.ID, f.owner.ID, f.friend.Email)
	require.NoError(t, err)
	f.trip = trip
	return f
}

type sentReminder struct {
	debtor   uuid.UUID
	creditor uuid.UUID
	amount   decimal.Decimal
	since    time.Time
}

// recordingNotifier keeps what would have been emailed.
type recordingNotifier struct {
	mu          sync.Mutex
	reminders   []sentReminder
	invitations []string
	failFor     string
}

func (n *recordingNotifier) NotifySpendAdded(trip models.Trip, spend models.Spend, payer models.User, participants []models.User) {
}

func (n *recordingNotifier) NotifyInvitation(email, inviterName, tripName, link string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invitations = append(n.invitations, email)
}

func (n *recordingNotifier) NotifyDebtReminder(debtor, creditor models.User, trip models.Trip, amount decimal.Decimal, since time.Time) error {
	if debtor.Email == n.failFor {
		return errSendFailed
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminders = append(n.reminders, sentReminder{debtor: debtor.ID, creditor: creditor.ID, amount: amount, since: since})
	return nil
}

var errSendFailed = errors.New("send failed")

func (n *recordingNotifier) invited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.invitations...)
}
