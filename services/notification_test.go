package services

import (
	"testing"
	"time"
	"tripsplit-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEmail(t *testing.T) {
	body, err := renderEmail(reminderTmpl, map[string]interface{}{
		"AppName":      "TripSplit",
		"DebtorName":   "Ben",
		"CreditorName": "Ana <3",
		"TripName":     "Azores",
		"Amount":       "19.50",
		"Currency":     "EUR",
		"Since":        "Jun 2, 2026",
		"Link":         "https://trips.example.com/trips/1",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "EUR 19.50")
	assert.Contains(t, body, "outstanding since Jun 2, 2026")
	assert.Contains(t, body, "Ana &lt;3")
	assert.Contains(t, body, `href="https://trips.example.com/trips/1"`)
	assert.Contains(t, body, "TripSplit</p>")
}

func TestNotificationService_WithoutAPIKeyIsSilent(t *testing.T) {
	ns := &NotificationService{from: "noreply@example.com", appName: "TripSplit", appURL: "https://trips.example.com"}
	trip := models.Trip{ID: uuid.New(), Name: "Azores", BaseCurrency: "EUR"}
	debtor := models.User{ID: uuid.New(), Name: "Ben", Email: "ben@example.com"}
	creditor := models.User{ID: uuid.New(), Name: "Ana", Email: "ana@example.com"}

	err := ns.NotifyDebtReminder(debtor, creditor, trip, d("19.5"), time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)

	ns.NotifyInvitation("dan@example.com", "Ana", "Azores", "https://trips.example.com/join?token=x")
	ns.NotifySpendAdded(trip, models.Spend{PayerID: creditor.ID, Currency: "EUR", Amount: d("10")}, creditor, []models.User{creditor, debtor})
}
