package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	var target struct {
		TTL Duration `json:"ttl"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"ttl":"30m"}`), &target))
	assert.Equal(t, 30*time.Minute, target.TTL.Duration)

	require.NoError(t, json.Unmarshal([]byte(`{"ttl":1000000000}`), &target))
	assert.Equal(t, time.Second, target.TTL.Duration)

	assert.Error(t, json.Unmarshal([]byte(`{"ttl":"never"}`), &target))
	assert.Error(t, json.Unmarshal([]byte(`{"ttl":true}`), &target))
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{90 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))
}
