// Package apperr содержит базовые ошибки сервиса, разделённые по категориям.
// Конкретные ошибки доменных пакетов оборачивают одну из четырёх базовых,
// чтобы HTTP-слой мог выбрать код ответа через errors.Is.
package apperr

import "errors"

var (
	// ErrValidation возвращается при некорректных входных данных; состояние не меняется.
	ErrValidation = errors.New("validation error")
	// ErrConflict возвращается, когда операция отклонена проверкой согласованности
	// (слот заполнен, купон исчерпан, предложение уже конвертировано).
	ErrConflict = errors.New("conflict")
	// ErrNotFound возвращается при обращении к неизвестному идентификатору или коду.
	ErrNotFound = errors.New("not found")
	// ErrExpired возвращается, когда срок действия предложения, договора или купона истёк.
	ErrExpired = errors.New("expired")
)
