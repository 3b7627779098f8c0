// Package apperr описывает ошибки бизнес-уровня и их классы.
package apperr

import (
	"errors"
	"fmt"
)

// Kind: класс ошибки. По нему транспорт выбирает код ответа.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindGateway
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindGateway:
		return "gateway"
	case KindIntegrity:
		return "integrity"
	default:
		return "internal"
	}
}

// Error: ошибка с классом, машинным кодом и произвольными деталями.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetail возвращает копию ошибки с добавленным полем деталей.
func (e *Error) WithDetail(key string, value any) *Error {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error { return New(KindValidation, code, message) }
func NotFound(code, message string) *Error   { return New(KindNotFound, code, message) }
func Conflict(code, message string) *Error   { return New(KindConflict, code, message) }
func Forbidden(code, message string) *Error  { return New(KindForbidden, code, message) }
func Integrity(code, message string) *Error  { return New(KindIntegrity, code, message) }

// Gateway оборачивает отказ внешнего провайдера.
func Gateway(code, message string, err error) *Error {
	return &Error{Kind: KindGateway, Code: code, Message: message, Err: err}
}

// As достаёт *Error из цепочки.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf возвращает класс ошибки; для "чужих" ошибок: KindInternal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// IsCode сообщает, что в цепочке есть *Error с указанным кодом.
func IsCode(err error, code string) bool {
	e, ok := As(err)
	return ok && e.Code == code
}
