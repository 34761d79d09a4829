package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"localhost:9092", []string{"localhost:9092"}},
		{" k1:9092, ,k2:9092 ,", []string{"k1:9092", "k2:9092"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseBrokers(tt.in), "input %q", tt.in)
	}
}

func TestNewProducer(t *testing.T) {
	p := NewProducer([]string{"k1:9092"}, "order-events")
	assert.Equal(t, "order-events", p.writer.Topic)
	assert.NoError(t, p.Close())
}

func TestNewProducer_BoundsWrites(t *testing.T) {
	p := NewProducer([]string{"k1:9092"}, "order-events")
	defer p.Close()
	assert.Equal(t, 5*time.Second, p.writer.WriteTimeout)
	assert.Equal(t, 3, p.writer.MaxAttempts)
}
