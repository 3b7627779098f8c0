package portone

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PaymentIDFor строит идентификатор платежа у провайдера из ID бронирования:
// "res_" + uuid без дефисов. Одно бронирование — всегда один и тот же ID.
func PaymentIDFor(reservationID uuid.UUID) string {
	return "res_" + strings.ReplaceAll(reservationID.String(), "-", "")
}

// Operation — вид денежной операции у провайдера.
type Operation string

const (
	// OpRefund — возврат (полный или частичный). Один ключ на пару
	// бронирование+платёж: админская отмена и явный возврат делят его.
	OpRefund Operation = "refund"
)

// IdempotencyKey детерминированно выводит ключ идемпотентности из вида операции,
// бронирования и платежа. Одинаковые аргументы дают одинаковый ключ в любом
// процессе и при любом повторе, поэтому ретрай после таймаута не задвоит возврат.
// Длина ключа не превышает 72 символов.
func IdempotencyKey(op Operation, reservationID, paymentID uuid.UUID) string {
	return fmt.Sprintf("%s-%s-%s",
		op,
		strings.ReplaceAll(reservationID.String(), "-", ""),
		strings.ReplaceAll(paymentID.String(), "-", ""),
	)
}
