package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/fekuna/omnipos-ledger-service/internal/model"
	"github.com/fekuna/omnipos-ledger-service/pkg/logger"
)

// LogNotifier writes every event to the structured log. It is always wired,
// so the log doubles as the minimal audit trail.
type LogNotifier struct {
	logger logger.ZapLogger
}

func NewLogNotifier(log logger.ZapLogger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Notify(_ context.Context, event model.Event) error {
	n.logger.Info(event.Describe(),
		zap.String("event_type", event.Type()),
		zap.Any("payload", event),
	)
	return nil
}
