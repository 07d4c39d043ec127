package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONWithServiceAndStage(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: DEBUG, Output: &buf, Service: "carrent"})

	log.ForStage("aggregator").Debug("context aggregated", "requester_id", "42")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", buf.String(), err)
	}
	if record[SERVICE] != "carrent" {
		t.Errorf("expected service attr carrent, got %v", record[SERVICE])
	}
	if record[STAGE] != "aggregator" {
		t.Errorf("expected stage attr aggregator, got %v", record[STAGE])
	}
	if record["requester_id"] != "42" {
		t.Errorf("expected requester_id 42, got %v", record["requester_id"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		logged bool
	}{
		{name: "default level drops debug", level: EMPTY, logged: false},
		{name: "info drops debug", level: INFO, logged: false},
		{name: "debug keeps debug", level: DEBUG, logged: true},
		{name: "unknown level behaves as info", level: "verbose", logged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: tt.level, Format: TEXT, Output: &buf})
			log.Debug("probe")

			if got := strings.Contains(buf.String(), "probe"); got != tt.logged {
				t.Errorf("debug record logged = %v, want %v", got, tt.logged)
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("nothing to see")
	log.ForStage("booking").Warn("still nothing")
}
