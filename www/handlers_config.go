package www

import (
	"encoding/json"
	"net/http"
)

// --- Config Admin ---

func (h *Handlers) apiUpdateMessaging(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Backend       string   `json:"backend"`
		MQTTBroker    string   `json:"mqtt_broker"`
		MQTTPort      int      `json:"mqtt_port"`
		MQTTClientID  string   `json:"mqtt_client_id"`
		KafkaBrokers  []string `json:"kafka_brokers"`
		KafkaGroupID  string   `json:"kafka_group_id"`
		EventsTopic   string   `json:"events_topic"`
		CommandsTopic string   `json:"commands_topic"`
		SiteID        string   `json:"site_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg := h.engine.AppConfig()
	cfg.Lock()
	cfg.Messaging.Backend = req.Backend
	cfg.Messaging.MQTT.Broker = req.MQTTBroker
	cfg.Messaging.MQTT.Port = req.MQTTPort
	cfg.Messaging.MQTT.ClientID = req.MQTTClientID
	cfg.Messaging.Kafka.Brokers = req.KafkaBrokers
	cfg.Messaging.Kafka.GroupID = req.KafkaGroupID
	cfg.Messaging.EventsTopic = req.EventsTopic
	cfg.Messaging.CommandsTopic = req.CommandsTopic
	cfg.Messaging.SiteID = req.SiteID
	cfg.Unlock()

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.ReconfigureMessaging()
	h.jsonOK(w, map[string]string{"status": "ok"})
}
