package services

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
)

// NotificationService handles LINE Notify messages to the staff room
type NotificationService struct {
	lineNotifyToken string
	enabled         bool
	client          *http.Client
}

// NewNotificationService creates a new notification service
func NewNotificationService() *NotificationService {
	token := os.Getenv("LINE_NOTIFY_TOKEN")
	if token == "" {
		log.Println("⚠️ LINE_NOTIFY_TOKEN not set — LINE notifications disabled")
	}
	return &NotificationService{
		lineNotifyToken: token,
		enabled:         token != "",
		client:          &http.Client{Timeout: 10 * time.Second},
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// sendLineNotify sends a message via LINE Notify
func (s *NotificationService) sendLineNotify(message string) error {
	if !s.enabled {
		return nil
	}

	data := url.Values{}
	data.Set("message", message)

	req, err := http.NewRequest("POST", "https://notify-api.line.me/api/notify", bytes.NewBufferString(data.Encode()))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+s.lineNotifyToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("line notify returned status %d", resp.StatusCode)
	}
	return nil
}

// notifyAsync fires a message without blocking the request path
func (s *NotificationService) notifyAsync(message string) {
	if !s.enabled {
		return
	}
	go func() {
		if err := s.sendLineNotify(message); err != nil {
			log.Printf("⚠️ LINE Notify failed: %v", err)
		}
	}()
}

// NotifyPromotion announces a grading to the staff room
func (s *NotificationService) NotifyPromotion(member *models.Member, promotion *models.Promotion) {
	from := models.NewRankView(promotion.FromBeltCode, promotion.FromStripes)
	to := models.NewRankView(promotion.ToBeltCode, promotion.ToStripes)

	message := fmt.Sprintf(`
🥋 昇帯のお知らせ

👤 %s (%s)
📊 %s %d本 → %s %d本
✍️ 担当: %s`,
		member.FullName(),
		member.MemberNo,
		from.BeltLabel, from.Stripes,
		to.BeltLabel, to.Stripes,
		promotion.PerformedByName,
	)
	if promotion.Note != "" {
		message += fmt.Sprintf("\n📝 %s", promotion.Note)
	}

	s.notifyAsync(message)
}

// NotifyNotice pushes an announcement to the staff room when it goes live
func (s *NotificationService) NotifyNotice(notice *models.Notice) {
	icon := "📢"
	if notice.Type == "URGENT" {
		icon = "🚨"
	}

	message := fmt.Sprintf(`
%s %s

%s`,
		icon,
		notice.Title,
		notice.Body,
	)

	s.notifyAsync(message)
}

// NotifyWaiverSigned tells the front desk a visitor signed a waiver
func (s *NotificationService) NotifyWaiverSigned(waiver *models.Waiver) {
	message := fmt.Sprintf(`
📝 ビジター誓約書

👤 %s
📋 受付番号: %s
📅 有効期限: %s`,
		waiver.VisitorName,
		waiver.Reference,
		waiver.ExpiresAt.Format("2006-01-02"),
	)

	s.notifyAsync(message)
}

// NotifySubscriptionPastDue warns that a gym's renewal has lapsed
func (s *NotificationService) NotifySubscriptionPastDue(gym *models.Gym, sub *models.Subscription) {
	message := fmt.Sprintf(`
⚠️ プラン更新期限切れ

🏢 %s (%s)
📦 プラン: %s
📅 更新期限: %s

お支払い状況をご確認ください`,
		gym.Name,
		gym.Code,
		sub.PlanCode,
		sub.RenewsAt.Format("2006-01-02"),
	)

	s.notifyAsync(message)
}

// NotifyClassReminder sends the morning timetable digest
func (s *NotificationService) NotifyClassReminder(gymName string, sessions []*models.ClassSession) {
	if len(sessions) == 0 {
		return
	}

	message := fmt.Sprintf("\n⏰ 本日のクラス — %s\n", gymName)
	for _, session := range sessions {
		coach := "未定"
		if session.Coach != nil {
			coach = session.Coach.Username
		}
		message += fmt.Sprintf("\n%s %s (%s)",
			session.StartsAt.Format("15:04"),
			session.Title,
			coach,
		)
	}

	s.notifyAsync(message)
}
