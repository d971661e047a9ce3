// Package mqtt publishes portal domain events to an MQTT broker.
//
// It wraps eclipse/paho.mqtt.golang with connection state tracking,
// auto-reconnect and a retained online/offline status topic (with Last Will).
//
// Publishing is optional: when mqtt.enabled is false the portal runs with
// a no-op publisher and this package is never connected.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	err = client.Publish(client.Topics().Event("user.registered"), payload, client.QoS(), false)
package mqtt
