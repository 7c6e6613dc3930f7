package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trail_catalog/internal/domain"
)

func trail(t *testing.T, id, title, number string, meters any, multi bool) *domain.TrailItem {
	t.Helper()
	props := map[string]any{"isMultiTrail": multi, "trailNumber": number}
	if meters != nil {
		props["trailDistanceMeter"] = meters
	}
	item, err := domain.NewTrailItem(map[string]any{
		"id":          id,
		"objectClass": domain.ClassTrail,
		"networkId":   "net",
		"content": map[string]any{
			"title":    title,
			"activity": map[string]any{"key": "hiking-easy", "value": "Easy"},
		},
		"properties": props,
	})
	require.NoError(t, err)
	return item
}

func TestWriteTrailsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trails.csv")
	trails := []*domain.TrailItem{
		trail(t, "a", "Loop A", "12", json.Number("3500"), false),
		trail(t, "b", "Loop B, with comma", "", 0, false),
	}

	n, err := WriteTrailsCSV(path, trails)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "title,number,activity_key,multitrail,length,url,gpx", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Loop A,12,hiking-easy,False,3500,https://www.aretrails.com/trail/a,"))
	assert.True(t, strings.HasPrefix(lines[2], `"Loop B, with comma",,hiking-easy,False,0,`))

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Loop B, with comma", records[2][0])
	assert.Equal(t,
		"https://func-gaiaplaces-aretrails.azurewebsites.net/api/ContentItem/geo/b/gpx?networkId=net&draft=0&code=",
		records[2][6],
	)
}

func TestWriteTrailsCSV_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trails.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale\nstale\nstale\nstale\n"), 0o644))

	n, err := WriteTrailsCSV(path, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "title,number,activity_key,multitrail,length,url,gpx\r\n", string(data))
}

func TestWriteTrailsCSV_QuotesNewlineInTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trails.csv")

	_, err := WriteTrailsCSV(path, []*domain.TrailItem{trail(t, "a", "Line one\nline two", "1", nil, true)})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Line one\nline two", records[1][0])
	assert.Equal(t, "True", records[1][3])
}

func TestWriteTrailsCSV_RowErrorPropagates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trails.csv")
	broken := &domain.TrailItem{ID: "x", ObjectClass: domain.ClassTrail, NetworkID: "n"}

	_, err := WriteTrailsCSV(path, []*domain.TrailItem{broken})
	assert.ErrorIs(t, err, domain.ErrMissingContent)
}

func TestWriteTrailsCSV_UnwritablePath(t *testing.T) {
	_, err := WriteTrailsCSV(filepath.Join(t.TempDir(), "missing", "trails.csv"), nil)
	assert.ErrorContains(t, err, "create csv")
}

func TestSaveRaw(t *testing.T) {
	c := &domain.Catalog{}
	c.Store(json.RawMessage(`{"items":[{"id":"1","objectClass":"trail","networkId":"n","content":{"title":"Åre <Sväng>"},"properties":{"isMultiTrail":false}}]}`))
	require.NoError(t, c.ParseItems())

	path := filepath.Join(t.TempDir(), "aretrails.json")
	require.NoError(t, SaveRaw(path, c))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, "Åre <Sväng>")
	assert.Contains(t, s, "\n    \"items\": [")

	var decoded struct {
		Items []domain.TrailItem `json:"items"`
		Data  map[string]any     `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Items, 1)
	assert.Equal(t, "1", decoded.Items[0].ID)
	assert.Contains(t, decoded.Data, "items")
}
