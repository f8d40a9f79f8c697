// pkg/invest/session.go
package invest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quotestream/collector/pkg/logger"
)

// Литералы протокола апстрима. Клиент шлёт их в том виде, в котором их
// ожидает сервер: JSON-в-JSON с одним слоем экранирования кавычек.
const (
	openAckFrame   = "o"
	identityFrame  = `["{\"_event\":\"UID\",\"UID\":0}"]`
	heartbeatFrame = `["{\"_event\":\"heartbeat\",\"data\":\"h\"}"]`

	// фиксированный региональный тег в кадре подписки
	regionTZID = "8"
)

func subscribeFrame(instrumentID string) string {
	return fmt.Sprintf(`["{\"_event\":\"bulk-subscribe\",\"tzID\":\"%s\",\"message\":\"pid-%s:\"}"]`, regionTZID, instrumentID)
}

// subscriptionKey — подстрока, по которой входящие кадры маршрутизируются
// на инструмент сессии; остальной протокольный шум игнорируется.
func subscriptionKey(instrumentID string) string {
	return "pid-" + instrumentID + "::{"
}

// Connector открывает сессии к стриму котировок: одна сессия — одно
// соединение — один инструмент. Connector не хранит состояния соединений
// и может использоваться из нескольких горутин.
type Connector struct {
	cfg      Config
	dialer   Dialer
	selector *EndpointSelector
	log      *logger.Logger
}

// NewConnector создаёт Connector.
// Логгер именуется как "invest-ws" для удобного фильтра в логах.
func NewConnector(cfg Config, log *logger.Logger) (*Connector, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Connector{
		cfg: cfg,
		dialer: &WSDialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			WriteTimeout:     cfg.WriteTimeout,
		},
		selector: NewEndpointSelector(cfg.Host),
		log:      log.Named("invest-ws"),
	}, nil
}

// SessionHandle позволяет вызывающему дождаться терминального результата
// сессии и запросить её отмену.
type SessionHandle struct {
	id           string
	instrumentID string
	cancel       context.CancelFunc
	done         chan struct{}
	result       SessionResult
}

// ID возвращает уникальный идентификатор сессии.
func (h *SessionHandle) ID() string { return h.id }

// InstrumentID возвращает инструмент сессии.
func (h *SessionHandle) InstrumentID() string { return h.instrumentID }

// Cancel запрашивает отмену: входящий цикл останавливается, keep-alive
// отменяется, транспорт закрывается. После наблюдения отмены handler
// больше не вызывается.
func (h *SessionHandle) Cancel() { h.cancel() }

// Done закрывается по достижении терминального состояния.
func (h *SessionHandle) Done() <-chan struct{} { return h.done }

// Join блокируется до завершения сессии и возвращает её результат.
func (h *SessionHandle) Join() SessionResult {
	<-h.done
	return h.result
}

// Start запускает сессию для инструмента: connect → handshake → streaming.
// handler вызывается синхронно на каждый успешно декодированный снимок,
// в порядке прихода кадров. Любой сбой терминален — авто-reconnect
// наслаивается выше SessionHandle (см. internal/app).
func (c *Connector) Start(ctx context.Context, instrumentID string, handler SnapshotHandler) *SessionHandle {
	sctx, cancel := context.WithCancel(ctx)
	h := &SessionHandle{
		id:           uuid.NewString(),
		instrumentID: instrumentID,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	go c.run(sctx, h, handler)
	return h
}

func (c *Connector) run(ctx context.Context, h *SessionHandle, handler SnapshotHandler) {
	defer h.cancel()

	log := c.log.With(
		zap.String("session_id", h.id),
		zap.String("instrument", h.instrumentID),
	)

	finish := func(reason CloseReason, err error) {
		h.result = SessionResult{Reason: reason, Err: err}
		if err != nil && reason != CloseCancelled {
			log.Warn("session closed", zap.String("reason", string(reason)), zap.Error(err))
		} else {
			log.Info("session closed", zap.String("reason", string(reason)))
		}
		close(h.done)
	}

	// --- Connecting ---
	url := c.selector.Next()
	conn, err := c.dialer.Dial(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			finish(CloseCancelled, ctx.Err())
			return
		}
		finish(CloseHandshakeFailed, fmt.Errorf("dial %s: %w", url, err))
		return
	}
	log.Info("ws: connected", zap.String("url", url))

	// Закрытие транспорта по отмене снимает блокировку с ReadText.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	first, err := conn.ReadText()
	if err != nil {
		if ctx.Err() != nil {
			finish(CloseCancelled, ctx.Err())
			return
		}
		finish(CloseHandshakeFailed, fmt.Errorf("read open ack: %w", err))
		return
	}
	if first != openAckFrame {
		finish(CloseHandshakeFailed, fmt.Errorf("unexpected open frame %q", first))
		return
	}

	// --- Handshaking: порядок фиксирован — подписка, затем identity ---
	if err := conn.WriteText(subscribeFrame(h.instrumentID)); err != nil {
		finish(CloseHandshakeFailed, fmt.Errorf("send subscribe: %w", err))
		return
	}
	if err := conn.WriteText(identityFrame); err != nil {
		finish(CloseHandshakeFailed, fmt.Errorf("send identity: %w", err))
		return
	}
	log.Debug("ws: handshake complete")

	// --- Streaming ---
	// После handshake единственный периодический писатель — keep-alive.
	hbErr := make(chan error, 1)
	go c.keepAlive(ctx, conn, hbErr)

	key := subscriptionKey(h.instrumentID)
	for {
		frame, err := conn.ReadText()
		if err != nil {
			if ctx.Err() != nil {
				finish(CloseCancelled, ctx.Err())
				return
			}
			select {
			case herr := <-hbErr:
				finish(CloseTransportError, fmt.Errorf("heartbeat send: %w", herr))
			default:
				if errors.Is(err, io.EOF) {
					finish(CloseEndOfStream, nil)
				} else {
					finish(CloseTransportError, err)
				}
			}
			return
		}
		if ctx.Err() != nil {
			finish(CloseCancelled, ctx.Err())
			return
		}
		if !strings.Contains(frame, key) {
			// ack/heartbeat-эхо и чужой протокольный шум
			continue
		}
		snap, derr := Decode(frame)
		if derr != nil {
			// Неразбираемый прикладной кадр — фатален для сессии,
			// молчаливой потери данных нет.
			finish(CloseDecodeError, derr)
			return
		}
		handler(*snap)
	}
}

// keepAlive шлёт heartbeat каждые HeartbeatInterval, пока сессия жива.
// Ошибка отправки фатальна: соединение закрывается, чтобы основной цикл
// немедленно увидел обрыв, а исходная ошибка попала в результат сессии.
func (c *Connector) keepAlive(ctx context.Context, conn Conn, errCh chan<- error) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteText(heartbeatFrame); err != nil {
				errCh <- err
				_ = conn.Close()
				return
			}
		}
	}
}
