package service

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"courtbooking/internal/config"
	"courtbooking/internal/db"
	"courtbooking/internal/entities"
	"courtbooking/internal/utils"
)

// StaffNotifier tells the front desk that a booking is waiting for slip
// verification. Channels without credentials are skipped.
type StaffNotifier struct {
	cfg config.NotifyConfig

	sendEmail func(subject, plain, html string) error
	sendSMS   func(body string) error
	// async is false only in tests.
	async bool
}

func NewStaffNotifier(cfg config.NotifyConfig) *StaffNotifier {
	n := &StaffNotifier{cfg: cfg, async: true}
	n.sendEmail = n.sendEmailWithSendGrid
	n.sendSMS = n.sendTwilioSMS
	return n
}

func (n *StaffNotifier) NotifyNewBooking(res db.Reservation) {
	if !n.cfg.EmailEnabled() && !n.cfg.SMSEnabled() {
		return
	}
	data := notificationData(res)
	if n.async {
		go n.deliver(data)
		return
	}
	n.deliver(data)
}

func (n *StaffNotifier) deliver(data entities.StaffNotificationData) {
	subject, plain, html := staffEmail(data)
	if n.cfg.EmailEnabled() {
		if err := n.sendEmail(subject, plain, html); err != nil {
			log.Warn().Err(err).Str("booking_id", data.BookingID).Msg("Staff email notification failed")
		}
	}
	if n.cfg.SMSEnabled() {
		if err := n.sendSMS(staffSMS(data)); err != nil {
			log.Warn().Err(err).Str("booking_id", data.BookingID).Msg("Staff SMS notification failed")
		}
	}
}

func notificationData(res db.Reservation) entities.StaffNotificationData {
	data := entities.StaffNotificationData{
		BookingID:  res.ID,
		CourtID:    res.CourtID,
		Date:       res.Date,
		StartTime:  res.StartTime,
		UserID:     res.UserID,
		TotalPrice: res.TotalPrice,
		HasSlip:    res.PaymentSlip != nil,
	}
	if iv, err := ReservationInterval(res); err == nil {
		data.EndTime = utils.FormatMinutes(iv.End)
	}
	return data
}

func staffEmail(d entities.StaffNotificationData) (subject, plain, html string) {
	slip := "no payment slip attached yet"
	if d.HasSlip {
		slip = "payment slip attached"
	}
	subject = fmt.Sprintf("New booking awaiting verification - court %s, %s %s", d.CourtID, d.Date, d.StartTime)
	plain = fmt.Sprintf(
		"A new booking is pending.\n\n"+
			"Booking: %s\n"+
			"Court: %s\n"+
			"Date: %s\n"+
			"Time: %s - %s\n"+
			"User: %s\n"+
			"Total: %.2f (%s)\n",
		d.BookingID, d.CourtID, d.Date, d.StartTime, d.EndTime, d.UserID, d.TotalPrice, slip,
	)
	html = "<p>" + strings.ReplaceAll(plain, "\n", "<br>") + "</p>"
	return subject, plain, html
}

func staffSMS(d entities.StaffNotificationData) string {
	return fmt.Sprintf("New booking %s: court %s, %s %s-%s. Please verify.",
		d.BookingID, d.CourtID, d.Date, d.StartTime, d.EndTime)
}

func (n *StaffNotifier) sendEmailWithSendGrid(subject, plain, html string) error {
	from := mail.NewEmail(n.cfg.SendGridFromName, n.cfg.SendGridFrom)
	to := mail.NewEmail("Staff", n.cfg.StaffEmail)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	client := sendgrid.NewSendClient(n.cfg.SendGridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	log.Debug().Str("to", n.cfg.StaffEmail).Int("status", response.StatusCode).Msg("Staff email sent")
	return nil
}

func (n *StaffNotifier) sendTwilioSMS(body string) error {
	if !strings.HasPrefix(n.cfg.StaffPhone, "+") {
		log.Warn().Str("to", n.cfg.StaffPhone).Msg("Staff phone is not in E.164 format, SMS may fail")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   n.cfg.TwilioAccountSID,
		Password:   n.cfg.TwilioAuthToken,
		AccountSid: n.cfg.TwilioAccountSID,
	})

	params := &openapi.CreateMessageParams{}
	params.SetTo(n.cfg.StaffPhone)
	params.SetFrom(n.cfg.TwilioFrom)
	params.SetBody(body)

	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		log.Debug().Str("sid", *resp.Sid).Msg("Staff SMS sent")
	}
	return nil
}
