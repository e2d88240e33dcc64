package mqtt

// Client publishes payloads to an MQTT broker.
type Client interface {
	// Publish sends payload to topic. kind selects the configured QoS.
	Publish(topic, kind string, payload []byte) error

	// Disconnect closes the connection to the broker.
	Disconnect()
}
