package mqtt

import (
	"fmt"
	"strings"
)

// Topic layout:
//
//	pihub/state/<family>      retained family snapshot (JSON)
//	pihub/relay/<id>/set      relay command ("on" or "off")
//	pihub/system/status       online/offline status + LWT
const (
	topicPrefix = "pihub"
)

// StateTopic returns the retained snapshot topic for a sensor or relay
// family.
//
// Example: pihub/state/dht22
func StateTopic(family string) string {
	return fmt.Sprintf("%s/state/%s", topicPrefix, family)
}

// RelayCommandTopic returns the command topic for a single relay.
//
// Example: pihub/relay/relay_17/set
func RelayCommandTopic(id string) string {
	return fmt.Sprintf("%s/relay/%s/set", topicPrefix, id)
}

// AllRelayCommands returns the wildcard pattern matching every relay
// command topic.
//
// Pattern: pihub/relay/+/set
func AllRelayCommands() string {
	return fmt.Sprintf("%s/relay/+/set", topicPrefix)
}

// SystemStatusTopic returns the online/offline status topic, also used
// as the Last Will topic.
//
// Example: pihub/system/status
func SystemStatusTopic() string {
	return fmt.Sprintf("%s/system/status", topicPrefix)
}

// RelayIDFromCommandTopic extracts the relay id from a command topic.
// Returns false if the topic does not match pihub/relay/<id>/set.
func RelayIDFromCommandTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != topicPrefix || parts[1] != "relay" || parts[3] != "set" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
