package config

type Bot struct {
	Token   string `env:"BOT_TOKEN" json:"-"`
	ChatID  int64  `env:"BOT_CHAT_ID"`
	AdminID int64  `env:"BOT_ADMIN_ID"`
}

// NotifierEnabled сообщает, заданы ли токен и чат для уведомлений.
func (b Bot) NotifierEnabled() bool {
	return b.Token != "" && b.ChatID != 0
}

// AdminEnabled сообщает, задан ли администратор командного бота.
func (b Bot) AdminEnabled() bool {
	return b.Token != "" && b.AdminID != 0
}
