package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kilianp07/vppsim/core/model"
	coremqtt "github.com/kilianp07/vppsim/core/mqtt"
	corenotify "github.com/kilianp07/vppsim/core/notify"
	"github.com/kilianp07/vppsim/infra/logger"
)

// AlertKind is the QoS key used for alert publications.
const AlertKind = "alert"

// Payload is the JSON body published for each notification.
type Payload struct {
	Level   model.AlertLevel `json:"level"`
	Message string           `json:"message"`
	Time    string           `json:"time"`
}

// MQTTNotifier publishes notifications to <prefix>/<level>. Publishing runs on
// a separate goroutine so Notify never waits on the broker.
type MQTTNotifier struct {
	client coremqtt.Client
	prefix string
	log    logger.Logger
	wg     sync.WaitGroup
}

var _ corenotify.Notifier = (*MQTTNotifier)(nil)

// NewMQTTNotifier returns a notifier publishing through client.
func NewMQTTNotifier(client coremqtt.Client, prefix string) *MQTTNotifier {
	return &MQTTNotifier{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/"),
		log:    logger.New("mqtt_notifier"),
	}
}

// Topic returns the topic used for level.
func (n *MQTTNotifier) Topic(level model.AlertLevel) string {
	return fmt.Sprintf("%s/%s", n.prefix, level)
}

// Notify publishes asynchronously.
func (n *MQTTNotifier) Notify(level model.AlertLevel, message, timestamp string) {
	payload, err := json.Marshal(Payload{Level: level, Message: message, Time: timestamp})
	if err != nil {
		n.log.Errorf("encode notification: %v", err)
		return
	}
	topic := n.Topic(level)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.client.Publish(topic, AlertKind, payload); err != nil {
			n.log.Errorf("notify %s: %v", topic, err)
		}
	}()
}

// Wait blocks until in-flight publications finish.
func (n *MQTTNotifier) Wait() { n.wg.Wait() }
