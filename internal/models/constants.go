package models

const (
	StatusPending     = "pending"
	StatusConfirmed   = "confirmed"
	StatusRescheduled = "rescheduled"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
)

// InactiveStatuses are excluded from overlap checks and from the
// occupied-slots view.
var InactiveStatuses = []string{StatusCancelled, StatusCompleted}

const (
	// DefaultSweepInterval интервал фонового перевода прошедших заявок в completed
	DefaultSweepInterval = 10 * 60 // 10 минут в секундах

	// DefaultSlotCacheTTL время жизни кэша занятых слотов
	DefaultSlotCacheTTL = 5 * 60 // 5 минут в секундах

	// DefaultRateLimitRPS лимит запросов API по умолчанию
	DefaultRateLimitRPS = 10

	// DefaultRateLimitBurst размер берста по умолчанию
	DefaultRateLimitBurst = 5
)
