// Package search содержит общие правила поиска, фильтрации и сортировки списков.
package search

import (
	"slices"
	"strings"
	"time"
)

// IsWildcard сообщает, означает ли значение фильтра статуса «любой статус».
func IsWildcard(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", "all", "todos":
		return true
	}
	return false
}

// StatusMatches проверяет точное совпадение статуса или подстановочный фильтр.
func StatusMatches(filter, status string) bool {
	if IsWildcard(filter) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(filter), status)
}

// TextMatches ищет q без учёта регистра как подстроку хотя бы одного из полей.
// Пустой запрос совпадает со всем.
func TextMatches(q string, fields ...string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// RecentFirst сортирует items по убыванию времени создания.
// При равном времени сохраняется исходный порядок.
func RecentFirst[T any](items []T, createdAt func(T) time.Time) {
	slices.SortStableFunc(items, func(a, b T) int {
		return createdAt(b).Compare(createdAt(a))
	})
}
