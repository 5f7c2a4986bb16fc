package state

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickDecodesWireKeys(t *testing.T) {
	payload := []byte(`{"symbol":"EURUSD","price":1.0842,"serverTimeSec":1700000000}`)

	var tick Tick
	require.NoError(t, json.Unmarshal(payload, &tick))

	assert.Equal(t, "EURUSD", tick.Symbol)
	assert.Equal(t, 1.0842, tick.Price)
	assert.Equal(t, int64(1_700_000_000), tick.ServerTime)
}
