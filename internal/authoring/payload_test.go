package authoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/run-directory-api/internal/models"
)

func TestBuildPayload(t *testing.T) {
	f, slotID := validForm(t)
	require.NoError(t, f.SetScalarField(FieldLocation, "<b>GBK</b> Jakarta"))
	require.NoError(t, f.SetDistanceField(slotID, FieldCutOffDisplay, "03:30"))
	require.NoError(t, f.SetDistanceField(slotID, FieldFlagOffTime, "05:30"))
	require.NoError(t, f.SetDistanceField(slotID, FieldPriceMin, "250000"))
	for _, p := range []struct{ km, limit string }{{"10", "01:30"}, {"5", "00:45"}, {"0", "01:00"}, {"7", ""}} {
		id, err := f.AddCutOffPoint(slotID)
		require.NoError(t, err)
		require.NoError(t, f.SetCutOffPointField(slotID, id, FieldKmMark, p.km))
		require.NoError(t, f.SetCutOffPointField(slotID, id, FieldTimeLimitHours, p.limit))
	}
	f.ToggleRaceType("road", true)

	payload, err := BuildPayload(f)
	require.NoError(t, err)

	assert.Equal(t, "GBK Jakarta", payload.Event.Location)
	assert.Nil(t, payload.Event.DateEnd)
	assert.Empty(t, payload.Event.ResultsLinks)
	assert.NotNil(t, payload.Event.ResultsLinks)
	require.Len(t, payload.Event.RPCInfo, 1)
	assert.Equal(t, "Mall Senayan", payload.Event.RPCInfo[0].LocationName)

	require.Len(t, payload.Distances, 1)
	row := payload.Distances[0]
	assert.Equal(t, 3.5, row.CutOffTimeHrs)
	assert.Equal(t, 250000.0, row.PriceMin)
	assert.True(t, row.FlagOffTime.Equal(time.Date(2025, 6, 14, 22, 30, 0, 0, time.UTC)))
	assert.Nil(t, row.RouteImageURL)
	assert.Equal(t, models.CutOffPointList{{KmMark: 5, TimeLimitHrs: 0.75}, {KmMark: 10, TimeLimitHrs: 1.5}}, row.CutOffPoints)

	payload.Bind("event-7")
	assert.Equal(t, "event-7", payload.Event.ID)
	assert.Equal(t, "event-7", payload.Distances[0].EventID)
	assert.Equal(t, []models.EventRaceType{{EventID: "event-7", TypeID: "road"}}, payload.RaceTypes)
	assert.Equal(t, []string{tenKID}, payload.DistanceIDs())
}

func TestBuildPayloadKeepsEndDateOnlyForMultiDay(t *testing.T) {
	f, _ := validForm(t)
	require.NoError(t, f.SetScalarField(FieldIsMultiDay, "true"))
	require.NoError(t, f.SetScalarField(FieldDateEnd, "2025-06-16"))

	payload, err := BuildPayload(f)
	require.NoError(t, err)
	require.NotNil(t, payload.Event.DateEnd)
	assert.Equal(t, "2025-06-16", payload.Event.DateEnd.Format("2006-01-02"))
}

func TestBuildPayloadKeepsLinksWithURL(t *testing.T) {
	f, _ := validForm(t)
	id := f.Links(DocsLinks)[0].ID
	require.NoError(t, f.SetLinkField(DocsLinks, id, FieldLinkURL, "https://photos.example"))

	payload, err := BuildPayload(f)
	require.NoError(t, err)
	assert.Equal(t, models.LinkList{{Label: DefaultDocsLabel, URL: "https://photos.example"}}, payload.Event.DocsLinks)
}

func TestBuildPayloadRejectsBadStartDate(t *testing.T) {
	f, _ := validForm(t)
	require.NoError(t, f.SetScalarField(FieldDateStart, "15/06/2025"))

	_, err := BuildPayload(f)
	assert.Error(t, err)
}
