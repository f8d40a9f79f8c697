// pkg/invest/errors.go
package invest

import "fmt"

// DecodeErrorKind классифицирует отказ разбора кадра котировки.
type DecodeErrorKind int

const (
	// KindMalformedEnvelope — во внешней обёртке не найдены разделители
	// `::{` / `}` внутреннего объекта.
	KindMalformedEnvelope DecodeErrorKind = iota
	// KindInvalidJSON — срез после снятия экранирования не является валидным
	// JSON либо не содержит обязательных полей.
	KindInvalidJSON
	// KindInvalidNumber — строковое значение turnover_numeric не состоит из цифр.
	KindInvalidNumber
)

func (k DecodeErrorKind) String() string {
	switch k {
	case KindMalformedEnvelope:
		return "malformed_envelope"
	case KindInvalidJSON:
		return "invalid_json"
	case KindInvalidNumber:
		return "invalid_number"
	default:
		return "unknown"
	}
}

// DecodeError возвращается из Decode. Снимок никогда не заполняется частично:
// либо полный Snapshot, либо DecodeError.
type DecodeError struct {
	Kind DecodeErrorKind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("decode (%s)", e.Kind)
}
func (e *DecodeError) Unwrap() error { return e.Err }

// CloseReason — терминальная причина завершения сессии.
type CloseReason string

const (
	CloseEndOfStream     CloseReason = "end_of_stream"
	CloseTransportError  CloseReason = "transport_error"
	CloseHandshakeFailed CloseReason = "handshake_failed"
	CloseDecodeError     CloseReason = "decode_error"
	CloseCancelled       CloseReason = "cancelled"
)

// SessionResult несёт ровно одну причину завершения и, если была, ошибку.
type SessionResult struct {
	Reason CloseReason
	Err    error
}
