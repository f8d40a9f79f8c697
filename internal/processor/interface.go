// internal/processor/interface.go
package processor

import (
	"context"

	"github.com/quotestream/collector/pkg/invest"
)

// Processor описывает контракт обработки декодированного снимка котировки.
type Processor interface {
	// Process обрабатывает один снимок. Ошибка означает потерю снимка,
	// но не останавливает сессию.
	Process(ctx context.Context, snap invest.Snapshot) error
}
