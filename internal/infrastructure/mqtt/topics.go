package mqtt

import "strings"

// DefaultTopicPrefix is used when mqtt.topic_prefix is empty.
const DefaultTopicPrefix = "portal"

// Topics builds portal MQTT topics under a common prefix:
//
//	{prefix}/system/status        retained online/offline status
//	{prefix}/events/{event_type}  domain events, not retained
type Topics struct {
	prefix string
}

// NewTopics returns a builder for prefix, trimming surrounding slashes.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// SystemStatus returns the retained status topic.
func (t Topics) SystemStatus() string {
	return t.prefix + "/system/status"
}

// Event returns the topic for a domain event type, e.g. "portal/events/feedback.submitted".
func (t Topics) Event(eventType string) string {
	return t.prefix + "/events/" + eventType
}

// AllEvents returns a wildcard subscription covering every event topic.
func (t Topics) AllEvents() string {
	return t.prefix + "/events/#"
}
