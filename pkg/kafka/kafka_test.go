package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClientParsesBrokers(t *testing.T) {
	c := NewClient(" broker-1:9092, ,broker-2:9092 ")
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, c.Brokers)
	assert.True(t, c.Enabled())

	assert.False(t, NewClient("").Enabled())
}

func TestNewWriterUsesTopic(t *testing.T) {
	w := NewClient("localhost:9092").NewWriter("payments")
	assert.Equal(t, "payments", w.Topic)
}
