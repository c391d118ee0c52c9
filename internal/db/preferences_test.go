package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/types"
)

func TestDecodePreferenceBuckets(t *testing.T) {
	var p types.UserPreference

	err := decodePreferenceBuckets(&p,
		[]byte(`[{"value":"warehouse","weight":1.8}]`),
		nil,
		[]byte(`[{"value":"Modesto, CA","weight":0.8}]`),
		nil,
		nil,
		[]byte(`{"min":18,"max":24,"weight":1.0}`),
	)

	require.NoError(t, err)
	assert.Equal(t, []types.WeightedValue{{Value: "warehouse", Weight: 1.8}}, p.JobTypes)
	assert.Equal(t, []types.WeightedValue{{Value: "Modesto, CA", Weight: 0.8}}, p.Locations)
	assert.Equal(t, types.SalaryPreference{Min: 18, Max: 24, Weight: 1.0}, p.SalaryRange)
	assert.Nil(t, p.Industries)
}

func TestDecodePreferenceBuckets_CorruptColumnIsStoreError(t *testing.T) {
	var p types.UserPreference

	err := decodePreferenceBuckets(&p, []byte(`{not json`), nil, nil, nil, nil, nil)

	var storeError *StoreError
	require.ErrorAs(t, err, &storeError)
	assert.Equal(t, "decode user preference", storeError.Op)
}

func TestDecodePreferenceBuckets_CorruptSalaryIsStoreError(t *testing.T) {
	var p types.UserPreference

	err := decodePreferenceBuckets(&p, nil, nil, nil, nil, nil, []byte(`"not an object`))

	var storeError *StoreError
	require.ErrorAs(t, err, &storeError)
}
