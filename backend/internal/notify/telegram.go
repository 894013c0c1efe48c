package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/axmedovx0430/davomatai/backend/config"
)

// Notifier 考勤到场通知接口
// 通知失败不影响考勤判定结果，调用方只记日志
type Notifier interface {
	NotifyCheckIn(ctx context.Context, chatID, fullName, scheduleName, status string, at time.Time) error
}

// NewNotifier 按配置创建 Notifier；未启用时返回空实现
func NewNotifier(cfg *config.TelegramConfig, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &nopNotifier{}
	}
	return &telegramNotifier{
		botToken: cfg.BotToken,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// telegramNotifier Telegram Bot API 实现
type telegramNotifier struct {
	botToken string
	client   *http.Client
	logger   *zap.Logger
}

func (n *telegramNotifier) NotifyCheckIn(ctx context.Context, chatID, fullName, scheduleName, status string, at time.Time) error {
	text := fmt.Sprintf("✅ %s darsga keldi", fullName)
	if scheduleName != "" {
		text = fmt.Sprintf("✅ %s \"%s\" darsiga keldi", fullName, scheduleName)
	}
	if status == "late" {
		text += " (kechikdi)"
	}
	text += "\n🕐 " + at.Format("15:04, 02.01.2006")

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram 发送失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram 返回 HTTP %d", resp.StatusCode)
	}
	return nil
}

// nopNotifier 未启用时的空实现
type nopNotifier struct{}

func (n *nopNotifier) NotifyCheckIn(ctx context.Context, chatID, fullName, scheduleName, status string, at time.Time) error {
	return nil
}
