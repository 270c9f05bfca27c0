// Package period содержит расчёты дат подписки: разбор даты начала,
// дату продления и попадание продления в окно напоминания.
package period

import (
	"fmt"
	"time"
)

// DateLayout — формат календарной даты подписки.
const DateLayout = "2006-01-02"

// RenewalDays — срок от начала подписки до продления.
const RenewalDays = 365

// ParseDate разбирает дату в формате YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	const op = "period.ParseDate"
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// FormatDate форматирует дату в YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today возвращает текущую дату в UTC без времени.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RenewalDate возвращает дату продления: начало плюс 365 дней.
func RenewalDate(start time.Time) time.Time {
	return start.AddDate(0, 0, RenewalDays)
}

// RenewsWithin сообщает, наступает ли продление в интервале (today, today+lead].
// Продление, которое уже прошло или наступает сегодня, не попадает в окно.
func RenewsWithin(renewal, today time.Time, lead time.Duration) bool {
	if !renewal.After(today) {
		return false
	}
	return !renewal.After(today.Add(lead))
}
