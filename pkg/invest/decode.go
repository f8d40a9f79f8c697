// pkg/invest/decode.go
package invest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Snapshot — одно ценовое обновление инструмента.
//
// Пример исходного кадра (двойная сериализация, каждый уровень вложенности
// добавляет слой экранирования кавычек):
//
//	a["{\"message\":\"pid-8984::{\\\"pid\\\":\\\"8984\\\",\\\"last_dir\\\":\\\"greenBg\\\",
//	\\\"last_numeric\\\":24871.5,\\\"last\\\":\\\"24,871.5\\\",...,\\\"timestamp\\\":1597116058}\"}"]
//
// Строковые поля last/bid/ask/high/low/pc и т.д. приходят уже отформатированными
// (locale-группировка разрядов) и передаются как есть.
type Snapshot struct {
	PID         string  `json:"pid"`
	LastDir     *string `json:"last_dir,omitempty"`
	LastNumeric float32 `json:"last_numeric"`
	Last        string  `json:"last"`
	Bid         string  `json:"bid"`
	Ask         string  `json:"ask"`
	High        string  `json:"high"`
	Low         string  `json:"low"`

	// Отсутствует на части инструментов (например, фьючерсах) — default "".
	LastClose string `json:"last_close"`

	PC    string `json:"pc"`
	PCP   string `json:"pcp"`
	PCCol string `json:"pc_col"`

	// Отсутствует на части инструментов — default "".
	Turnover string `json:"turnover"`

	TurnoverNumeric TurnoverNumeric `json:"turnover_numeric"`

	Time      string `json:"time"`
	Timestamp uint64 `json:"timestamp"`
}

// TurnoverNumeric приходит по проводу как JSON-число, строка цифр или пустая
// строка. Пустая строка и отсутствующий ключ нормализуются в 0.
type TurnoverNumeric uint32

// UnmarshalJSON реализует правило "u32 или строка" из апстрим-протокола.
func (t *TurnoverNumeric) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return &DecodeError{Kind: KindInvalidJSON, Err: err}
		}
		if s == "" {
			*t = 0
			return nil
		}
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return &DecodeError{Kind: KindInvalidNumber, Err: fmt.Errorf("turnover_numeric=%q: %w", s, err)}
		}
		*t = TurnoverNumeric(v)
		return nil
	}

	v, err := strconv.ParseUint(string(data), 10, 32)
	if err != nil {
		return &DecodeError{Kind: KindInvalidNumber, Err: fmt.Errorf("turnover_numeric=%s: %w", data, err)}
	}
	*t = TurnoverNumeric(v)
	return nil
}

// envelopeDelim отмечает "id подписки :: открывающая скобка" во внешней обёртке.
const envelopeDelim = "::{"

// Decode восстанавливает Snapshot из сырого текста кадра.
//
// Внутренний объект лежит на один уровень экранирования глубже обёртки:
// вырезаем подстроку от разделителя `::{` до первой литеральной `}`
// включительно и удаляем каждую литеральную тройку обратных слэшей.
// Приём с тройками слэшей теряет данные, если легитимное значение поля
// когда-нибудь само содержит такую последовательность; апстрим таких
// значений не шлёт, и мы повторяем его поведение без дополнительной защиты.
func Decode(raw string) (*Snapshot, error) {
	start := strings.Index(raw, envelopeDelim)
	if start < 0 {
		return nil, &DecodeError{Kind: KindMalformedEnvelope, Err: fmt.Errorf("delimiter %q not found", envelopeDelim)}
	}
	end := strings.Index(raw[start:], "}")
	if end < 0 {
		return nil, &DecodeError{Kind: KindMalformedEnvelope, Err: errors.New("closing brace not found")}
	}

	inner := raw[start+2 : start+end+1]
	text := strings.ReplaceAll(inner, `\\\`, "")

	var snap Snapshot
	if err := json.Unmarshal([]byte(text), &snap); err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, &DecodeError{Kind: KindInvalidJSON, Err: err}
	}

	if snap.PID == "" {
		return nil, &DecodeError{Kind: KindInvalidJSON, Err: errors.New(`missing required field "pid"`)}
	}
	if snap.Timestamp == 0 {
		return nil, &DecodeError{Kind: KindInvalidJSON, Err: errors.New(`missing required field "timestamp"`)}
	}
	return &snap, nil
}
