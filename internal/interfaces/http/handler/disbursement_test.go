package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoucherUniqueResponseWireFormat(t *testing.T) {
	body, err := json.Marshal(VoucherUniqueResponse{VoucherNumber: "CV-2025-0001", Available: true})
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))

	assert.Equal(t, "CV-2025-0001", payload["voucher_number"])
	assert.Equal(t, true, payload["available"])
	assert.NotContains(t, payload, "unique")
}
