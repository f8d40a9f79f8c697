// pkg/invest/endpoint.go
package invest

import (
	"fmt"
	"math/rand"
)

// DefaultHost — базовый домен пула stream-хостов апстрима.
const DefaultHost = "forexpros.com"

// EndpointSelector выбирает точку подключения: двухзначный дискриминатор
// хоста даёт грубое распределение нагрузки по пулу равнозначных бэкендов,
// два hex-токена образуют SockJS-совместимый путь сессии. Состояния нет —
// чистое форматирование поверх источника случайности.
type EndpointSelector struct {
	host string
}

// NewEndpointSelector создаёт селектор для заданного домена
// (пустая строка → DefaultHost).
func NewEndpointSelector(host string) *EndpointSelector {
	if host == "" {
		host = DefaultHost
	}
	return &EndpointSelector{host: host}
}

// Next возвращает очередной URL вида
// wss://stream2<00-99>.<host>/echo/<3 hex>/<8 hex>/websocket.
func (s *EndpointSelector) Next() string {
	return fmt.Sprintf("wss://stream2%02d.%s/echo/%03x/%08x/websocket",
		rand.Intn(100),
		s.host,
		rand.Intn(0x1000),
		rand.Uint32(),
	)
}
