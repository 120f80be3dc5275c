package utils

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-05-03")
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)))

	d, err = ParseDate(" 2026-05-03T10:30:00+02:00 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2026, 5, 3, 8, 30, 0, 0, time.UTC)))
	assert.Equal(t, time.UTC, d.Location())

	_, err = ParseDate("03/05/2026")
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, 5, 3, 23, 59, 0, 0, time.FixedZone("EAT", 3*3600))
	assert.True(t, StartOfDay(in).Equal(time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)))
}

func TestParseObjectID(t *testing.T) {
	_, err := ParseObjectID("nope", "service id")
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Contains(t, err.Error(), "service id")

	id, err := ParseObjectID("64b7f0c2a1b2c3d4e5f60718", "id")
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", id.Hex())
}
