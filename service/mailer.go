package service

import (
	"fmt"
	"log"

	mail "github.com/go-mail/mail/v2"
)

// Mailer sends new-chapter notifications over SMTP. Nil-safe: a nil
// Mailer silently drops sends, so handlers don't need to branch on
// whether SMTP is configured.
type Mailer struct {
	dialer *mail.Dialer
	from   string
}

func NewMailer(host string, port int, user, password, from string) *Mailer {
	if host == "" || from == "" {
		return nil
	}
	d := mail.NewDialer(host, port, user, password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	return &Mailer{dialer: d, from: from}
}

// NotifyNewChapter mails each recipient that a chapter went live.
// Failures are logged per-recipient and do not stop the rest.
func (m *Mailer) NotifyNewChapter(recipients []string, mangaTitle string, chapterNumber float64, chapterURL string) {
	if m == nil || len(recipients) == 0 {
		return
	}
	subject := fmt.Sprintf("%s: chapter %g is out", mangaTitle, chapterNumber)
	body := fmt.Sprintf("A new chapter of %s is available.\n\nRead it here: %s\n\nYou get this mail because you favorited the series. Turn off new-chapter notifications in your settings to stop.", mangaTitle, chapterURL)

	for _, to := range recipients {
		msg := mail.NewMessage()
		msg.SetHeader("From", m.from)
		msg.SetHeader("To", to)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/plain", body)
		if err := m.dialer.DialAndSend(msg); err != nil {
			log.Printf("mailer: send to %s: %v", to, err)
		}
	}
}
