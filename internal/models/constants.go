package models

const (
	CallbackDailyYes = "daily_yes"
	CallbackDailyNo  = "daily_no"

	CallbackDailyPrefix = "daily_"
)

const (
	// DefaultTimezone часовой пояс, в котором считается время рассылки
	DefaultTimezone = "Asia/Tashkent"

	// DefaultBroadcastTime время ежедневной рассылки (HH:MM)
	DefaultBroadcastTime = "20:00"

	// DefaultBroadcastWindow ширина окна срабатывания в секундах
	DefaultBroadcastWindow = 60

	// DefaultBroadcastWorkers количество параллельных отправок
	DefaultBroadcastWorkers = 4

	// DefaultBroadcastRate сообщений в секунду (лимит Telegram ~30)
	DefaultBroadcastRate = 20

	// DefaultPrayerAPIURL адрес API времени намаза
	DefaultPrayerAPIURL = "https://islomapi.uz/api/present/day"

	// DefaultPrayerTimeout таймаут запроса к API в секундах
	DefaultPrayerTimeout = 10

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// BroadcastMarkerTTL время жизни отметки о выполненной рассылке
	BroadcastMarkerTTL = 36 * 60 * 60 // 36 часов в секундах
)
