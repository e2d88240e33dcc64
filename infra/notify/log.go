// Package notify provides Notifier adapters for logs and MQTT.
package notify

import (
	"github.com/kilianp07/vppsim/core/model"
	corenotify "github.com/kilianp07/vppsim/core/notify"
	"github.com/kilianp07/vppsim/infra/logger"
)

// LogNotifier writes notifications to the structured log, mapping the alert
// level to the log severity.
type LogNotifier struct {
	log logger.Logger
}

var _ corenotify.Notifier = (*LogNotifier)(nil)

// NewLogNotifier returns a LogNotifier. A nil logger uses the "notify" component.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.New("notify")
	}
	return &LogNotifier{log: l}
}

// Notify logs the message.
func (n *LogNotifier) Notify(level model.AlertLevel, message, timestamp string) {
	switch level {
	case model.LevelCritical:
		n.log.Errorf("[%s] %s", timestamp, message)
	case model.LevelWarning:
		n.log.Warnf("[%s] %s", timestamp, message)
	default:
		n.log.Infof("[%s] %s", timestamp, message)
	}
}
