package mqtt

import "strings"

// Topics builds and parses the bridge's topic namespace. The prefix comes
// from mqtt.topic_prefix and matches whatever the home automation core is
// configured with.
//
//	topics := mqtt.Topics{Prefix: "homecore"}
//	topics.State("light", "kitchen") // "homecore/state/light/kitchen"
type Topics struct {
	Prefix string
}

// State returns the retained state topic for one entity.
//
// Example: homecore/state/light/kitchen
func (t Topics) State(domain, objectID string) string {
	return t.Prefix + "/state/" + domain + "/" + objectID
}

// Command returns the service-call topic for one entity.
//
// Example: homecore/command/light/kitchen
func (t Topics) Command(domain, objectID string) string {
	return t.Prefix + "/command/" + domain + "/" + objectID
}

// AllStates returns the wildcard pattern matching every entity state topic.
//
// Pattern: homecore/state/+/+
func (t Topics) AllStates() string {
	return t.Prefix + "/state/+/+"
}

// BridgeStatus returns the topic carrying this bridge's online status,
// also used as the Last Will topic.
//
// Example: homecore/bridge/grayassist/status
func (t Topics) BridgeStatus() string {
	return t.Prefix + "/bridge/grayassist/status"
}

// ParseState extracts the domain and object ID from a state topic.
// Returns ok=false for topics outside the state namespace or with a
// malformed remainder.
func (t Topics) ParseState(topic string) (domain, objectID string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.Prefix+"/state/")
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
