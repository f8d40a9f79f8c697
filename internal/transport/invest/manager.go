// internal/transport/invest/manager.go
package invest

import (
	"context"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/quotestream/collector/internal/processor"
	investws "github.com/quotestream/collector/pkg/invest"
	"github.com/quotestream/collector/pkg/logger"
)

// Manager владеет коннектором апстрима и отслеживает активные сессии.
// Один инструмент — не более одной активной сессии; повторный Run для
// того же инструмента отменяет предыдущую.
type Manager struct {
	connector *investws.Connector
	log       *logger.Logger

	mu     sync.Mutex
	active map[string]*investws.SessionHandle
}

// NewManager создаёт менеджер сессий поверх единственного коннектора.
func NewManager(cfg investws.Config, log *logger.Logger) (*Manager, error) {
	c, err := investws.NewConnector(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Manager{
		connector: c,
		log:       log.Named("invest-manager"),
		active:    make(map[string]*investws.SessionHandle),
	}, nil
}

// Run выполняет одну сессию для инструмента до терминального состояния
// и возвращает её результат. Reconnect-политика наслаивается вызывающим.
func (m *Manager) Run(ctx context.Context, instrumentID string, proc processor.Processor) investws.SessionResult {
	ctx, span := tracer.Start(ctx, "Session",
		trace.WithAttributes(attribute.String("instrument", instrumentID)))
	defer span.End()

	h := m.connector.Start(ctx, instrumentID, m.newHandler(ctx, instrumentID, proc))
	m.track(instrumentID, h)
	res := h.Join()
	m.untrack(instrumentID, h)

	observeResult(span, res)
	return res
}

// Active возвращает отсортированный список инструментов с живой сессией.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CancelAll отменяет все активные сессии. Используется при остановке.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	handles := make([]*investws.SessionHandle, 0, len(m.active))
	for _, h := range m.active {
		handles = append(handles, h)
	}
	m.mu.Unlock()
	for _, h := range handles {
		h.Cancel()
	}
}

func (m *Manager) track(instrumentID string, h *investws.SessionHandle) {
	m.mu.Lock()
	prev := m.active[instrumentID]
	m.active[instrumentID] = h
	m.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}
}

func (m *Manager) untrack(instrumentID string, h *investws.SessionHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[instrumentID] == h {
		delete(m.active, instrumentID)
	}
}
