// Package cart реализует подбор вкусов печенья под целевое количество дюжин.
// Учёт ведётся в условных единицах ёмкости: обычный вкус стоит 1 единицу за
// штуку, назначенный «двойной» вкус — 2 единицы за штуку. Добавление всегда
// идёт шагом в полдюжины ёмкости (6 единиц).
package cart

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmeshcher/bakeshop-system/internal/apperr"
	"github.com/mmeshcher/bakeshop-system/internal/model"
)

const (
	// UnitsPerDozen — единиц ёмкости в одной дюжине.
	UnitsPerDozen = 12
	// IncrementUnits — единиц ёмкости в одном шаге добавления.
	IncrementUnits = 6

	piecesPerIncrement       = 6
	doublePiecesPerIncrement = 3
)

// TTL ограничивает срок жизни сериализованной корзины на стороне клиента.
const TTL = 24 * time.Hour

// Selection — значение-объект выбора клиента: цель в дюжинах и набор вкусов.
// Состояние меняется только методами пакета; сервер никогда не доверяет
// присланной клиентом корзине без повторной валидации.
type Selection struct {
	doubleFlavor string
	minDozens    int
	maxDozens    int
	targetDozens int
	items        []model.FlavorQty
}

// New создаёт пустой выбор. doubleFlavor — вкус с двойной стоимостью ёмкости,
// minDozens и maxDozens — допустимые границы цели.
func New(doubleFlavor string, minDozens, maxDozens int) *Selection {
	return &Selection{
		doubleFlavor: doubleFlavor,
		minDozens:    minDozens,
		maxDozens:    maxDozens,
	}
}

// SetTarget устанавливает цель в дюжинах. Если текущая стоимость выбора
// превышает новую цель, выбор очищается целиком: частичное усечение требовало
// бы неоднозначного выбора, какой вкус убрать.
func (s *Selection) SetTarget(dozens int) error {
	if dozens < s.minDozens || dozens > s.maxDozens {
		return fmt.Errorf("%w: dozens must be between %d and %d", apperr.ErrValidation, s.minDozens, s.maxDozens)
	}

	s.targetDozens = dozens
	if s.Cost() > s.TargetUnits() {
		s.items = nil
	}
	return nil
}

// TargetDozens возвращает текущую цель в дюжинах (0, если цель не установлена).
func (s *Selection) TargetDozens() int { return s.targetDozens }

// TargetUnits возвращает цель в единицах ёмкости.
func (s *Selection) TargetUnits() int { return s.targetDozens * UnitsPerDozen }

// Items возвращает копию выбранных вкусов.
func (s *Selection) Items() []model.FlavorQty {
	out := make([]model.FlavorQty, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Selection) unitCost(flavor string) int {
	if flavor == s.doubleFlavor {
		return 2
	}
	return 1
}

func (s *Selection) piecesPerStep(flavor string) int {
	if flavor == s.doubleFlavor {
		return doublePiecesPerIncrement
	}
	return piecesPerIncrement
}

// Cost возвращает стоимость выбора в единицах ёмкости.
func (s *Selection) Cost() int {
	total := 0
	for _, it := range s.items {
		total += it.Quantity * s.unitCost(it.Flavor)
	}
	return total
}

// Remaining возвращает остаток ёмкости до цели.
func (s *Selection) Remaining() int { return s.TargetUnits() - s.Cost() }

// Add добавляет один шаг указанного вкуса. Если остаток ёмкости меньше шага
// или цель не установлена, выбор не меняется и возвращается конфликт.
func (s *Selection) Add(flavor string) error {
	if s.targetDozens == 0 {
		return fmt.Errorf("%w: dozens target is not set", apperr.ErrConflict)
	}
	if s.Remaining() < IncrementUnits {
		return fmt.Errorf("%w: no capacity left for another half dozen", apperr.ErrConflict)
	}

	pieces := s.piecesPerStep(flavor)
	for i := range s.items {
		if s.items[i].Flavor == flavor {
			s.items[i].Quantity += pieces
			return nil
		}
	}
	s.items = append(s.items, model.FlavorQty{Flavor: flavor, Quantity: pieces})
	return nil
}

// Remove убирает один шаг указанного вкуса. Если после шага остаётся не больше
// нуля штук, вкус удаляется целиком. Отсутствующий вкус — no-op.
func (s *Selection) Remove(flavor string) {
	pieces := s.piecesPerStep(flavor)
	for i := range s.items {
		if s.items[i].Flavor != flavor {
			continue
		}
		if s.items[i].Quantity <= pieces {
			s.items = append(s.items[:i], s.items[i+1:]...)
		} else {
			s.items[i].Quantity -= pieces
		}
		return
	}
}

// IsComplete сообщает, заполнена ли ёмкость точно до цели.
func (s *Selection) IsComplete() bool {
	return s.targetDozens > 0 && s.Cost() == s.TargetUnits()
}

// FromDetails восстанавливает выбор из данных заявки и требует точного
// заполнения ёмкости: неполная или переполненная корзина не проходит к оплате.
func FromDetails(doubleFlavor string, minDozens, maxDozens int, d model.CookiesDetails) (*Selection, error) {
	s := New(doubleFlavor, minDozens, maxDozens)
	if err := s.SetTarget(d.Dozens); err != nil {
		return nil, err
	}

	for _, f := range d.Flavors {
		if f.Quantity <= 0 {
			return nil, fmt.Errorf("%w: flavor %q has non-positive quantity", apperr.ErrValidation, f.Flavor)
		}
	}
	s.items = d.Flavors

	if s.Cost() > s.TargetUnits() {
		return nil, fmt.Errorf("%w: selection exceeds %d dozens", apperr.ErrValidation, d.Dozens)
	}
	if !s.IsComplete() {
		return nil, fmt.Errorf("%w: selection does not fill %d dozens exactly", apperr.ErrValidation, d.Dozens)
	}
	return s, nil
}

// envelope — формат сериализации корзины для передачи клиенту.
type envelope struct {
	DoubleFlavor string            `json:"double_flavor"`
	MinDozens    int               `json:"min_dozens"`
	MaxDozens    int               `json:"max_dozens"`
	TargetDozens int               `json:"target_dozens"`
	Items        []model.FlavorQty `json:"items"`
	ExpiresAt    time.Time         `json:"expires_at"`
}

// Encode сериализует выбор вместе с меткой истечения срока.
func (s *Selection) Encode(now time.Time) ([]byte, error) {
	return json.Marshal(envelope{
		DoubleFlavor: s.doubleFlavor,
		MinDozens:    s.minDozens,
		MaxDozens:    s.maxDozens,
		TargetDozens: s.targetDozens,
		Items:        s.items,
		ExpiresAt:    now.Add(TTL),
	})
}

// Decode восстанавливает выбор из сериализованного вида и проверяет его
// инварианты заново: клиентская копия не авторитетна.
func Decode(data []byte, now time.Time) (*Selection, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: decode cart: %s", apperr.ErrValidation, err)
	}
	if now.After(e.ExpiresAt) {
		return nil, fmt.Errorf("%w: cart expired", apperr.ErrExpired)
	}

	s := New(e.DoubleFlavor, e.MinDozens, e.MaxDozens)
	if e.TargetDozens != 0 {
		if err := s.SetTarget(e.TargetDozens); err != nil {
			return nil, err
		}
	}
	for _, it := range e.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: flavor %q has non-positive quantity", apperr.ErrValidation, it.Flavor)
		}
	}
	s.items = e.Items
	if s.Cost() > s.TargetUnits() {
		return nil, fmt.Errorf("%w: cart exceeds its dozens target", apperr.ErrValidation)
	}
	return s, nil
}
