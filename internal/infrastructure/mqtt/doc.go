// Package mqtt provides the MQTT client used by the entity registry.
//
// The home automation core publishes retained entity state to
// <prefix>/state/<domain>/<object_id> and accepts service calls on
// <prefix>/command/<domain>/<object_id>. This package manages the broker
// connection with auto-reconnect, tracked subscriptions restored after a
// reconnect, and a Last Will message so the core can tell when the
// assistant bridge drops off.
//
// TLS is expected for anything beyond local development; payloads are not
// encrypted beyond the transport.
package mqtt
