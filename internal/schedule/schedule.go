// Package schedule вычисляет сетку слотов бронирования: недельные часы работы,
// минимальный срок заказа по типу и вместимость слота. Пакет не хранит
// состояния и не обращается к базе; счётчики броней передаются снаружи.
package schedule

import (
	"fmt"
	"time"

	"github.com/mmeshcher/bakeshop-system/internal/apperr"
	"github.com/mmeshcher/bakeshop-system/internal/model"
)

// DateLayout — формат дат слотов.
const DateLayout = "2006-01-02"

// TimeLayout — формат времени суток слотов.
const TimeLayout = "15:04"

// Ошибки закрытых слотов.
var (
	ErrClosedByLeadTime = fmt.Errorf("%w: date is closer than the minimum lead time", apperr.ErrValidation)
	ErrClosedByHours    = fmt.Errorf("%w: time is outside the open hours", apperr.ErrValidation)
)

// Window описывает непрерывный интервал работы в течение дня.
// Close не включается в сетку слотов.
type Window struct {
	Open  string
	Close string
}

// Config содержит расписание пекарни и правила бронирования по типам заказов.
type Config struct {
	IntervalMinutes int
	Hours           map[time.Weekday][]Window
	LeadTimeDays    map[model.OrderType]int
	Capacity        map[model.OrderType]int
}

// Default возвращает рабочее расписание по умолчанию: вторник–суббота,
// 10:00–16:00, слот в один час.
func Default() Config {
	weekHours := []Window{{Open: "10:00", Close: "16:00"}}
	return Config{
		IntervalMinutes: 60,
		Hours: map[time.Weekday][]Window{
			time.Tuesday:   weekHours,
			time.Wednesday: weekHours,
			time.Thursday:  weekHours,
			time.Friday:    weekHours,
			time.Saturday:  weekHours,
		},
		LeadTimeDays: map[model.OrderType]int{
			model.OrderTypeCookies:      3,
			model.OrderTypeCookiesLarge: 7,
			model.OrderTypeCake:         7,
			model.OrderTypeTasting:      10,
			model.OrderTypeWedding:      30,
		},
		Capacity: map[model.OrderType]int{
			model.OrderTypeCookies:      4,
			model.OrderTypeCookiesLarge: 2,
			model.OrderTypeCake:         2,
			model.OrderTypeTasting:      2,
			model.OrderTypeWedding:      1,
		},
	}
}

// LeadTime возвращает минимальный срок заказа в днях для типа заказа.
func (c Config) LeadTime(t model.OrderType) int {
	return c.LeadTimeDays[t]
}

// SlotCapacity возвращает вместимость одного слота для типа заказа.
func (c Config) SlotCapacity(t model.OrderType) int {
	return c.Capacity[t]
}

// MinDate возвращает самую раннюю дату, доступную для бронирования.
func (c Config) MinDate(t model.OrderType, now time.Time) string {
	return now.AddDate(0, 0, c.LeadTime(t)).Format(DateLayout)
}

// Times возвращает времена слотов для даты согласно недельному расписанию.
// Для выходного дня список пуст.
func (c Config) Times(date string) ([]string, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", apperr.ErrValidation, date)
	}

	var out []string
	step := time.Duration(c.IntervalMinutes) * time.Minute
	for _, w := range c.Hours[day.Weekday()] {
		open, err := time.Parse(TimeLayout, w.Open)
		if err != nil {
			return nil, fmt.Errorf("parse open %q: %w", w.Open, err)
		}
		closeAt, err := time.Parse(TimeLayout, w.Close)
		if err != nil {
			return nil, fmt.Errorf("parse close %q: %w", w.Close, err)
		}
		for ts := open; ts.Before(closeAt); ts = ts.Add(step) {
			out = append(out, ts.Format(TimeLayout))
		}
	}
	return out, nil
}

// IsBookable проверяет, что слот открыт: дата не ближе минимального срока
// и время входит в рабочие часы этого дня недели.
func (c Config) IsBookable(t model.OrderType, date, tod string, now time.Time) error {
	if date < c.MinDate(t, now) {
		return ErrClosedByLeadTime
	}

	times, err := c.Times(date)
	if err != nil {
		return err
	}
	for _, ts := range times {
		if ts == tod {
			return nil
		}
	}
	return ErrClosedByHours
}

// TimeSlot описывает один слот в ответе о доступности.
type TimeSlot struct {
	Time      string
	Available bool
	Remaining int
}

// Availability строит карту слотов за диапазон дат включительно.
// reserved задаёт занятость по дате и времени; отсутствие записи означает ноль.
// Слоты ближе минимального срока включаются в ответ как недоступные.
func (c Config) Availability(t model.OrderType, start, end string, now time.Time, reserved map[string]map[string]int) (map[string][]TimeSlot, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("%w: bad start date %q", apperr.ErrValidation, start)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("%w: bad end date %q", apperr.ErrValidation, end)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end date is before start date", apperr.ErrValidation)
	}

	capacity := c.SlotCapacity(t)
	minDate := c.MinDate(t, now)

	out := make(map[string][]TimeSlot)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		date := day.Format(DateLayout)
		times, err := c.Times(date)
		if err != nil {
			return nil, err
		}
		if len(times) == 0 {
			continue
		}

		slots := make([]TimeSlot, 0, len(times))
		for _, ts := range times {
			taken := reserved[date][ts]
			remaining := capacity - taken
			if remaining < 0 {
				remaining = 0
			}
			slots = append(slots, TimeSlot{
				Time:      ts,
				Available: remaining > 0 && date >= minDate,
				Remaining: remaining,
			})
		}
		out[date] = slots
	}
	return out, nil
}
