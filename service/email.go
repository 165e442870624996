package service

import (
	"fmt"
	"html"

	"expensetracker/config"
	"expensetracker/ledger"
	"expensetracker/models"

	"gopkg.in/gomail.v2"
)

// BudgetAlerter 预算超支通知
type BudgetAlerter interface {
	SendBudgetAlert(toEmail, username string, budget models.BudgetView) error
}

// EmailService 邮件服务
type EmailService struct {
	cfg      *config.EmailConfig
	currency string
	send     func(m *gomail.Message) error
}

// NewEmailService 创建邮件服务，currency 用于格式化金额
func NewEmailService(cfg *config.EmailConfig, currency string) *EmailService {
	s := &EmailService{cfg: cfg, currency: currency}
	s.send = s.dialAndSend
	return s
}

// Enabled 是否已启用
func (s *EmailService) Enabled() bool {
	return s.cfg != nil && s.cfg.Enabled
}

// SendBudgetAlert 发送预算超支提醒
func (s *EmailService) SendBudgetAlert(toEmail, username string, budget models.BudgetView) error {
	if !s.Enabled() {
		return fmt.Errorf("email service disabled, set email.enabled=true")
	}

	subject := fmt.Sprintf("[Expense Tracker] Budget %q exceeded", budget.Category)
	body, err := s.generateBudgetAlertBody(username, budget)
	if err != nil {
		return err
	}
	return s.sendEmail(toEmail, subject, body)
}

// generateBudgetAlertBody 生成超支邮件内容
func (s *EmailService) generateBudgetAlertBody(username string, budget models.BudgetView) (string, error) {
	spent, err := ledger.FormatMinor(budget.Spent, s.currency)
	if err != nil {
		return "", err
	}
	limit, err := ledger.FormatMinor(budget.Limit.IntPart(), s.currency)
	if err != nil {
		return "", err
	}
	over, err := ledger.FormatMinor(budget.Spent-budget.Limit.IntPart(), s.currency)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #dc2626, #b91c1c); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        table { width: 100%%; border-collapse: collapse; margin: 20px 0; }
        td { padding: 10px; border-bottom: 1px solid #eee; }
        .over { color: #b91c1c; font-weight: bold; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Budget exceeded</h1>
        </div>
        <div class="content">
            <p>Hi <strong>%s</strong>,</p>
            <p>Your spending in <strong>%s</strong> is now above its budget.</p>
            <table>
                <tr><td>Limit</td><td>%s %s</td></tr>
                <tr><td>Spent</td><td>%s %s</td></tr>
                <tr><td>Over by</td><td class="over">%s %s</td></tr>
            </table>
        </div>
        <div class="footer">
            <p>This message was sent automatically, please do not reply.</p>
        </div>
    </div>
</body>
</html>
`, html.EscapeString(username), html.EscapeString(budget.Category),
		limit, s.currency,
		spent, s.currency,
		over, s.currency), nil
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (s *EmailService) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}
