package models

import (
	"regexp"
	"strings"
)

// Broker describes one supported partner program. Pattern bounds what a
// client id may look like before it is ever sent upstream.
type Broker struct {
	Name string
	// Pattern validates a trimmed client id.
	Pattern *regexp.Regexp
	// HasAPI marks brokers with a partner verification endpoint. Brokers
	// without one always go through admin approval.
	HasAPI bool
	// HasTradeActivity marks brokers whose partner API exposes per-account
	// trade dates for the inactivity sweep.
	HasTradeActivity bool
}

var brokers = []Broker{
	{Name: "XM", Pattern: regexp.MustCompile(`^\d{5,12}$`), HasAPI: true},
	{Name: "Vantage", Pattern: regexp.MustCompile(`^\d{5,12}$`), HasAPI: true, HasTradeActivity: true},
	{Name: "Exness", Pattern: regexp.MustCompile(`^\d{6,12}$`)},
	{Name: "IC Markets", Pattern: regexp.MustCompile(`^[A-Za-z0-9]{4,16}$`)},
	{Name: "FBS", Pattern: regexp.MustCompile(`^\d{5,12}$`)},
}

// Brokers returns all supported brokers in display order.
func Brokers() []Broker { return brokers }

// BrokerByName looks up a broker by its exact name.
func BrokerByName(name string) (Broker, bool) {
	for _, b := range brokers {
		if b.Name == name {
			return b, true
		}
	}
	return Broker{}, false
}

// NormalizeClientID trims raw input and validates it against the broker's
// pattern. Invalid input never reaches a verifier.
func NormalizeClientID(broker string, raw string) (string, bool) {
	b, ok := BrokerByName(broker)
	if !ok {
		return "", false
	}
	id := strings.TrimSpace(raw)
	if !b.Pattern.MatchString(id) {
		return "", false
	}
	return id, true
}
