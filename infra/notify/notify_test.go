package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/vppsim/core/model"
	"github.com/kilianp07/vppsim/infra/logger"
	"github.com/kilianp07/vppsim/infra/mqtt"
)

type levelLogger struct {
	logger.NopLogger
	lines []string
}

func (l *levelLogger) Infof(f string, _ ...any)  { l.lines = append(l.lines, "info") }
func (l *levelLogger) Warnf(f string, _ ...any)  { l.lines = append(l.lines, "warn") }
func (l *levelLogger) Errorf(f string, _ ...any) { l.lines = append(l.lines, "error") }

func TestLogNotifierMapsLevels(t *testing.T) {
	l := &levelLogger{}
	n := NewLogNotifier(l)
	n.Notify(model.LevelCritical, "Asset Link Lost: Wind Farm Kraków", "10:00:00")
	n.Notify(model.LevelWarning, "Voltage Sag Detected in Region B", "10:00:05")
	n.Notify(model.LevelInfo, "Market Price Updated", "10:00:10")
	assert.Equal(t, []string{"error", "warn", "info"}, l.lines)
}

func TestLogNotifierWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(nil)

	NewLogNotifier(nil).Notify(model.LevelWarning, "Voltage Sag Detected in Region B", "10:00:05")
	out := buf.String()
	assert.Contains(t, out, "Voltage Sag Detected in Region B")
	assert.True(t, strings.Contains(out, `"level":"warn"`))
}

func TestMQTTNotifierPublishesPerLevel(t *testing.T) {
	pub := mqtt.NewMockPublisher()
	n := NewMQTTNotifier(pub, "vpp/alerts/")
	n.Notify(model.LevelCritical, "Inverter Communication Failure: PV Warsaw", "12:30:00")
	n.Wait()

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "vpp/alerts/critical", msgs[0].Topic)
	assert.Equal(t, AlertKind, msgs[0].Kind)

	var p Payload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &p))
	assert.Equal(t, Payload{Level: model.LevelCritical, Message: "Inverter Communication Failure: PV Warsaw", Time: "12:30:00"}, p)
}

func TestMQTTNotifierSwallowsErrors(t *testing.T) {
	pub := mqtt.NewMockPublisher()
	pub.Err = errors.New("broker down")
	n := NewMQTTNotifier(pub, "vpp/alerts")
	assert.NotPanics(t, func() {
		n.Notify(model.LevelInfo, "Market Price Updated", "12:30:00")
		n.Wait()
	})
	assert.Empty(t, pub.Messages())
}
