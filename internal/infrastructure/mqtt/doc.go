// Package mqtt mirrors the hub's live state onto an MQTT broker and
// accepts relay commands back from it.
//
// Family snapshots are published retained to pihub/state/<family> on
// every aggregation pass, so a subscriber always sees the latest
// readings immediately after connecting. Relay commands arrive on
// pihub/relay/+/set with an "on"/"off" payload.
//
// The client reconnects automatically with exponential backoff and
// restores its subscriptions after every reconnect. A Last Will on
// pihub/system/status lets subscribers distinguish a crash from a
// graceful shutdown.
package mqtt
