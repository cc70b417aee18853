package services

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
	"tripsplit-backend/config"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Notifier delivers user-facing messages. Delivery is best effort.
type Notifier interface {
	NotifySpendAdded(trip models.Trip, spend models.Spend, payer models.User, participants []models.User)
	NotifyInvitation(email, inviterName, tripName, link string)
	NotifyDebtReminder(debtor, creditor models.User, trip models.Trip, amount decimal.Decimal, since time.Time) error
}

type NotificationService struct {
	apiKey  string
	from    string
	appName string
	appURL  string
}

var notifService *NotificationService

func GetNotificationService() *NotificationService {
	if notifService == nil {
		notifService = &NotificationService{
			apiKey:  config.AppConfig.SendGridAPIKey,
			from:    config.AppConfig.SendGridFrom,
			appName: config.AppConfig.AppName,
			appURL:  config.AppConfig.AppURL,
		}
	}
	return notifService
}

func (ns *NotificationService) sendEmail(toEmail, toName, subject, htmlBody string) error {
	if ns.apiKey == "" {
		utils.Logger.WithField("to", toEmail).Debug("SendGrid API key not set, skipping email")
		return nil
	}

	from := mail.NewEmail(ns.appName, ns.from)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	resp, err := sendgrid.NewSendClient(ns.apiKey).Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}

	utils.Logger.WithFields(logrus.Fields{"to": toEmail, "subject": subject}).Info("Email sent")
	return nil
}

// NotifySpendAdded emails every participant other than the payer their share.
func (ns *NotificationService) NotifySpendAdded(trip models.Trip, spend models.Spend, payer models.User, participants []models.User) {
	shares := make(map[string]decimal.Decimal, len(spend.Assignments))
	for _, a := range spend.Assignments {
		shares[a.UserID.String()] = a.ShareAmount
	}

	for _, user := range participants {
		if user.ID == spend.PayerID || user.Email == "" {
			continue
		}
		share := shares[user.ID.String()]
		precision := utils.CurrencyPrecision(spend.Currency)
		body, err := renderEmail(spendAddedTmpl, map[string]interface{}{
			"AppName":     ns.appName,
			"PayerName":   payer.Name,
			"UserName":    user.Name,
			"Description": spend.Description,
			"Total":       spend.Amount.StringFixed(precision),
			"Share":       share.StringFixed(precision),
			"Currency":    spend.Currency,
			"TripName":    trip.Name,
		})
		if err != nil {
			utils.Logger.WithError(err).Error("Failed to render spend email")
			return
		}
		subject := fmt.Sprintf("%s added \"%s\" in %s", payer.Name, spend.Description, trip.Name)
		if err := ns.sendEmail(user.Email, user.Name, subject, body); err != nil {
			utils.Logger.WithError(err).WithField("user_id", user.ID.String()).Warn("Spend notification failed")
		}
	}
}

// NotifyInvitation emails a join link to someone invited to a trip.
func (ns *NotificationService) NotifyInvitation(email, inviterName, tripName, link string) {
	body, err := renderEmail(invitationTmpl, map[string]interface{}{
		"AppName":     ns.appName,
		"InviterName": inviterName,
		"TripName":    tripName,
		"Link":        link,
	})
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to render invitation email")
		return
	}
	subject := fmt.Sprintf("%s invited you to join \"%s\" on %s", inviterName, tripName, ns.appName)
	if err := ns.sendEmail(email, "", subject, body); err != nil {
		utils.Logger.WithError(err).WithField("to", email).Warn("Invitation email failed")
	}
}

// NotifyDebtReminder nudges a debtor about an outstanding settlement.
func (ns *NotificationService) NotifyDebtReminder(debtor, creditor models.User, trip models.Trip, amount decimal.Decimal, since time.Time) error {
	body, err := renderEmail(reminderTmpl, map[string]interface{}{
		"AppName":      ns.appName,
		"DebtorName":   debtor.Name,
		"CreditorName": creditor.Name,
		"TripName":     trip.Name,
		"Amount":       amount.StringFixed(utils.CurrencyPrecision(trip.BaseCurrency)),
		"Currency":     trip.BaseCurrency,
		"Since":        since.Format("Jan 2, 2006"),
		"Link":         fmt.Sprintf("%s/trips/%s", ns.appURL, trip.ID),
	})
	if err != nil {
		return fmt.Errorf("render reminder: %w", err)
	}
	subject := fmt.Sprintf("Reminder: you owe %s in %s", creditor.Name, trip.Name)
	return ns.sendEmail(debtor.Email, debtor.Name, subject, body)
}

func renderEmail(t *template.Template, data map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const emailLayout = `
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		{{template "content" .}}
		<p style="color: #999; font-size: 12px; margin-top: 24px;">{{.AppName}}</p>
	</div>
</body>
</html>`

var (
	spendAddedTmpl = template.Must(template.Must(template.New("spend").Parse(emailLayout)).Parse(`{{define "content"}}
		<h2 style="color: #0B7A75; margin-top: 0;">New spend in {{.TripName}}</h2>
		<p>Hi <strong>{{.UserName}}</strong>,</p>
		<p><strong>{{.PayerName}}</strong> paid for something you share:</p>
		<div style="background: #f8f9fa; border-radius: 8px; padding: 16px; margin: 16px 0;">
			<p style="margin: 4px 0; font-size: 18px;"><strong>{{.Description}}</strong></p>
			<p style="margin: 4px 0; color: #666;">Total: {{.Currency}} {{.Total}}</p>
			<p style="margin: 4px 0; color: #e53e3e; font-size: 18px;"><strong>Your share: {{.Currency}} {{.Share}}</strong></p>
		</div>{{end}}`))

	invitationTmpl = template.Must(template.Must(template.New("invitation").Parse(emailLayout)).Parse(`{{define "content"}}
		<h2 style="color: #0B7A75; margin-top: 0;">You're invited!</h2>
		<p><strong>{{.InviterName}}</strong> invited you to plan <strong>"{{.TripName}}"</strong> together.</p>
		<div style="margin: 24px 0;">
			<a href="{{.Link}}" style="background: #0B7A75; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none; font-weight: bold;">Join the trip</a>
		</div>{{end}}`))

	reminderTmpl = template.Must(template.Must(template.New("reminder").Parse(emailLayout)).Parse(`{{define "content"}}
		<h2 style="color: #0B7A75; margin-top: 0;">Time to settle up</h2>
		<p>Hi <strong>{{.DebtorName}}</strong>,</p>
		<p>You owe <strong>{{.CreditorName}}</strong> <strong>{{.Currency}} {{.Amount}}</strong> for <strong>{{.TripName}}</strong>, outstanding since {{.Since}}.</p>
		<div style="margin: 24px 0;">
			<a href="{{.Link}}" style="background: #0B7A75; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none; font-weight: bold;">View balances</a>
		</div>{{end}}`))
)
