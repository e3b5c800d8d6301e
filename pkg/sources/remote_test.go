package sources

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/records"
)

type fakeFetcher map[string]string

func (f fakeFetcher) Open(_ context.Context, url string) (io.ReadCloser, error) {
	body, ok := f[url]
	if !ok {
		return nil, fmt.Errorf("GET %s: 404 Not Found", url)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://county.example.gov/parcels.ndjson"))
	assert.True(t, IsURL("HTTP://host/x.csv"))
	assert.False(t, IsURL("parcels.ndjson"))
	assert.False(t, IsURL("ftp://host/x"))
}

func TestRemoteProducers(t *testing.T) {
	f := fakeFetcher{
		"https://api/parcels.ndjson": `{"parcel_id":"1","owner_name":"Jane Doe"}` + "\n",
		"https://api/scraped.csv":    "parcel_id,owner_name\n2,John Roe\n",
	}

	ndjson := NewNDJSONURL("https://api/parcels.ndjson", f, WithOrigin(records.OriginAPI))
	assert.Equal(t, "https://api/parcels.ndjson", ndjson.Name())
	recs, err := ndjson.Produce(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, records.OriginAPI, recs[0].Origin)
	assert.Equal(t, "Jane Doe", recs[0].Fields["owner_name"])

	csv := NewCSVURL("https://api/scraped.csv", f, WithOrigin(records.OriginScrape), WithName("scraped"))
	assert.Equal(t, "scraped", csv.Name())
	recs, err = csv.Produce(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "2", recs[0].Fields["parcel_id"])

	_, err = NewNDJSONURL("https://api/missing", f, WithOrigin(records.OriginAPI)).Produce(context.Background())
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr), "got %v", err)
}
