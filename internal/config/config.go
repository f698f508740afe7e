package config

import (
	"errors"
	"os"
	"strings"
)

// Config contains runtime configuration required by the service.
type Config struct {
	DBURL        string
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
	HTTPAddr     string
}

// Load reads required values from environment variables.
// KAFKA_BROKERS format: "host1:9092,host2:9092"
func Load() (Config, error) {
	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return Config{}, errors.New("DB_URL required")
	}

	brokersRaw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	var brokers []string
	for _, b := range strings.Split(brokersRaw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}

	// Local dev fallback so the service runs out-of-the-box.
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	topic := strings.TrimSpace(os.Getenv("KAFKA_TOPIC"))
	if topic == "" {
		topic = "poll-votes"
	}

	groupID := strings.TrimSpace(os.Getenv("KAFKA_GROUP_ID"))
	if groupID == "" {
		groupID = "polling-group"
	}

	addr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if addr == "" {
		addr = ":8080"
	}

	return Config{
		DBURL:        dbURL,
		KafkaBrokers: brokers,
		KafkaTopic:   topic,
		KafkaGroupID: groupID,
		HTTPAddr:     addr,
	}, nil
}
