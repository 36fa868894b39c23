package kafka

import (
	"testing"
	"time"

	"github.com/smogwatch/smog-ingest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	hour := time.Date(2025, 11, 12, 10, 0, 0, 0, time.UTC)
	pm25 := 187.4
	reading := domain.Reading{
		Timestamp:        hour,
		District:         "Lahore",
		PM25:             &pm25,
		WindSpeedKmh:     14.2,
		WindDirectionDeg: 275,
	}

	msg, err := serializeToMessage(reading)
	require.NoError(t, err)

	assert.Equal(t, []byte("Lahore"), msg.Key)
	assert.Contains(t, string(msg.Value), `"district":"Lahore"`)
	assert.Contains(t, string(msg.Value), `"pm2_5":187.4`)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "hour", msg.Headers[0].Key)
	assert.Equal(t, []byte(hour.Format(time.RFC3339)), msg.Headers[0].Value)
}

func TestSerializeToMessage_NullParticulates(t *testing.T) {
	msg, err := serializeToMessage(domain.Reading{District: "Multan"})
	require.NoError(t, err)
	assert.Contains(t, string(msg.Value), `"pm2_5":null`)
	assert.Contains(t, string(msg.Value), `"pm10":null`)
}
