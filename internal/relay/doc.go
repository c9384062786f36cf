// Package relay polls one sensor and republishes its reading.
//
// A relay is useful when several viewers watch the same sensor, or when the
// sensor is only reachable from one host. It serves:
//
//	GET /co2      the raw reading as plain text, same contract as the sensor,
//	              so another co2viewer can use the relay as its address
//	GET /reading  the latest snapshot as JSON
//	GET /ws       a WebSocket stream of snapshots, one per poll
//	GET /healthz  liveness
//
// /co2 and /reading answer 503 while there is no current reading: before the
// first successful poll and after any poll that failed. When an MQTT
// publisher is attached, every good reading is also published there.
package relay
