package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc/certificateflow/internal/apperr"
)

func TestFetcherReturnsRecord(t *testing.T) {
	recs := newStubRecords()
	recs.docs["cert-1"] = map[string]interface{}{"id": "cert-1", "clientName": "Jane Doe"}

	record, err := NewFetcherWithDeps(testConfig(), recs).Process(context.Background(), "cert-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", record["clientName"])
}

func TestFetcherRejectsEmptyID(t *testing.T) {
	_, err := NewFetcherWithDeps(testConfig(), newStubRecords()).Process(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestFetcherMissingRecordIsNotFound(t *testing.T) {
	_, err := NewFetcherWithDeps(testConfig(), newStubRecords()).Process(context.Background(), "cert-404")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
