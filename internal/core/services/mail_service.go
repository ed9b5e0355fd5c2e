package services

import (
	"fmt"
	"log"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/config"
)

// MailService sends transactional email through SendGrid. With no API
// key configured it degrades to a no-op so local setups need nothing.
type MailService struct {
	client  *sendgrid.Client
	from    *sgmail.Email
	enabled bool
}

// NewMailService creates a new mail service
func NewMailService(cfg config.MailConfig) *MailService {
	if cfg.SendGridAPIKey == "" {
		log.Println("⚠️ SENDGRID_API_KEY not set — email disabled")
		return &MailService{enabled: false}
	}
	return &MailService{
		client:  sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:    sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		enabled: true,
	}
}

// IsEnabled checks if email sending is configured
func (s *MailService) IsEnabled() bool {
	return s.enabled
}

func (s *MailService) send(toName, toEmail, subject, plain, html string) error {
	if !s.enabled {
		return nil
	}

	message := sgmail.NewSingleEmail(s.from, subject, sgmail.NewEmail(toName, toEmail), plain, html)
	resp, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// SendWaiverReceipt mails the visitor their waiver reference
func (s *MailService) SendWaiverReceipt(waiver *models.Waiver, gymName string) error {
	subject := fmt.Sprintf("【%s】誓約書の受付が完了しました", gymName)
	plain := fmt.Sprintf(
		"%s 様\n\n誓約書の署名を受け付けました。\n\n受付番号: %s\n署名日: %s\n有効期限: %s\n\n受付の際に受付番号をご提示ください。\n\n%s",
		waiver.VisitorName,
		waiver.Reference,
		waiver.SignedAt.Format("2006-01-02"),
		waiver.ExpiresAt.Format("2006-01-02"),
		gymName,
	)
	html := fmt.Sprintf(
		"<p>%s 様</p><p>誓約書の署名を受け付けました。</p><ul><li>受付番号: <strong>%s</strong></li><li>署名日: %s</li><li>有効期限: %s</li></ul><p>受付の際に受付番号をご提示ください。</p><p>%s</p>",
		waiver.VisitorName,
		waiver.Reference,
		waiver.SignedAt.Format("2006-01-02"),
		waiver.ExpiresAt.Format("2006-01-02"),
		gymName,
	)
	return s.send(waiver.VisitorName, waiver.VisitorEmail, subject, plain, html)
}

// SendNoticeEmail delivers a broadcast announcement to one member
func (s *MailService) SendNoticeEmail(toName, toEmail string, notice *models.Notice, gymName string) error {
	subject := fmt.Sprintf("【%s】%s", gymName, notice.Title)
	plain := fmt.Sprintf("%s\n\n%s", notice.Title, notice.Body)
	html := fmt.Sprintf("<h2>%s</h2><p>%s</p>", notice.Title, notice.Body)
	return s.send(toName, toEmail, subject, plain, html)
}

// SendPlanChanged confirms a plan change to the gym admin
func (s *MailService) SendPlanChanged(toName, toEmail, gymName, fromPlan, toPlan string) error {
	subject := fmt.Sprintf("【%s】プラン変更のお知らせ", gymName)
	plain := fmt.Sprintf("プランを %s から %s に変更しました。", fromPlan, toPlan)
	html := fmt.Sprintf("<p>プランを <strong>%s</strong> から <strong>%s</strong> に変更しました。</p>", fromPlan, toPlan)
	return s.send(toName, toEmail, subject, plain, html)
}
