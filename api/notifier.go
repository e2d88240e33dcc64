package api

import "github.com/kilianp07/vppsim/core/model"

// Toast is the payload of a toast message.
type Toast struct {
	Level   model.AlertLevel `json:"level"`
	Message string           `json:"message"`
	Time    string           `json:"time"`
}

// HubNotifier shows alert notifications as toasts on connected clients.
type HubNotifier struct {
	Hub *Hub
}

// Notify implements notify.Notifier.
func (n HubNotifier) Notify(level model.AlertLevel, message, timestamp string) {
	if err := n.Hub.Broadcast(TypeToast, Toast{Level: level, Message: message, Time: timestamp}); err != nil {
		n.Hub.log.Debugf("toast dropped: %v", err)
	}
}
