package services

import (
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// CalculateNextCheck прибавляет к дате последней проверки годы, затем месяцы,
// затем дни. Пустая строка, если период нулевой или дата не разбирается.
func CalculateNextCheck(lastCheck string, years, months, days int) string {
	if years == 0 && months == 0 && days == 0 {
		return ""
	}
	last, err := time.Parse(dateLayout, lastCheck)
	if err != nil {
		return ""
	}
	next := last.AddDate(years, 0, 0).AddDate(0, months, 0).AddDate(0, 0, days)
	return next.Format(dateLayout)
}

// PeriodToDays - грубая длина периода для сортировки.
func PeriodToDays(years, months, days int) int {
	return years*365 + months*30 + days
}

// DDay - число дней до следующей проверки (отрицательное, если просрочено).
func DDay(nextCheck string, today time.Time) (int, bool) {
	next, err := time.Parse(dateLayout, nextCheck)
	if err != nil {
		return 0, false
	}
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	diff := next.Sub(start).Hours() / 24
	return int(math.Ceil(diff)), true
}
