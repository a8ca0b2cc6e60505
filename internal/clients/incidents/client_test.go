package incidents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wayfare/geoengine/internal/lib/proximity"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <name>Road Reports</name>
    <Placemark>
      <name>Flooded underpass</name>
      <description>&lt;b&gt;Avoid:&lt;/b&gt; standing water reported</description>
      <styleUrl>#hazard</styleUrl>
      <Point>
        <coordinates>103.8198,1.3521,0</coordinates>
      </Point>
    </Placemark>
    <Folder>
      <name>Closures</name>
      <Placemark>
        <name>Orchard Rd resurfacing</name>
        <LineString>
          <coordinates>
            103.8300,1.3040,0
            103.8330,1.3046,0
            103.8365,1.3052,0
          </coordinates>
        </LineString>
      </Placemark>
      <Placemark>
        <name>No geometry here</name>
      </Placemark>
    </Folder>
  </Document>
</kml>`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, string) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithHTTPDoer(server.Client(), zap.NewNop()), server.URL
}

func TestFetchFeatures(t *testing.T) {
	client, feedURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	})

	features, err := client.FetchFeatures(context.Background(), feedURL, "hazard")
	require.NoError(t, err)
	require.Len(t, features, 2, "geometry-less placemark skipped")

	point := features[0]
	assert.Equal(t, proximity.FeaturePoint, point.Kind)
	assert.Equal(t, "hazard", point.Category)
	assert.InDelta(t, 1.3521, point.Location.Latitude, 1e-9)
	assert.InDelta(t, 103.8198, point.Location.Longitude, 1e-9)
	assert.Equal(t, "Flooded underpass", point.Metadata["name"])
	assert.Equal(t, "Avoid: standing water reported", point.Metadata["description"])
	assert.Equal(t, "hazard", point.Metadata["style"])

	line := features[1]
	assert.Equal(t, proximity.FeatureLine, line.Kind)
	require.Len(t, line.Geometry, 3)
	assert.InDelta(t, 103.8330, line.Geometry[1].Longitude, 1e-9)
	assert.Equal(t, "Closures", line.Metadata["folder"])
}

func TestFetchFeatures_UniqueIDsAcrossFolders(t *testing.T) {
	const feed = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Folder>
      <name>A</name>
      <Placemark><name>a1</name><Point><coordinates>103.80,1.30</coordinates></Point></Placemark>
      <Placemark><name>a2</name><Point><coordinates>103.81,1.31</coordinates></Point></Placemark>
    </Folder>
    <Folder>
      <name>B</name>
      <Placemark><name>b1</name><Point><coordinates>103.82,1.32</coordinates></Point></Placemark>
    </Folder>
  </Document>
</kml>`

	client, feedURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	})

	features, err := client.FetchFeatures(context.Background(), feedURL, "hazard")
	require.NoError(t, err)
	require.Len(t, features, 3)

	seen := make(map[string]string)
	for _, f := range features {
		if prev, ok := seen[f.ID]; ok {
			t.Fatalf("id %s assigned to both %s and %s", f.ID, prev, f.Metadata["name"])
		}
		seen[f.ID] = f.Metadata["name"]
	}
	assert.Equal(t, "hazard-0", features[0].ID)
	assert.Equal(t, "hazard-1", features[1].ID)
	assert.Equal(t, "hazard-2", features[2].ID)
}

func TestFetchFeatures_HTTPError(t *testing.T) {
	client, feedURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.FetchFeatures(context.Background(), feedURL, "hazard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP error 503")
}

func TestFetchFeatures_MalformedXML(t *testing.T) {
	client, feedURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<kml><unclosed"))
	})

	_, err := client.FetchFeatures(context.Background(), feedURL, "hazard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse KML")
}

func TestParseCoordinates(t *testing.T) {
	path, err := parseCoordinates("103.8,1.3,0 103.9,1.4")
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.InDelta(t, 1.3, path[0].Latitude, 1e-9)
	assert.InDelta(t, 103.9, path[1].Longitude, 1e-9)

	_, err = parseCoordinates("103.8")
	assert.Error(t, err)

	_, err = parseCoordinates("181.0,1.3")
	assert.Error(t, err, "out-of-domain longitude rejected")
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Lane 1 closed until Friday",
		stripHTML("<p>Lane 1 <b>closed</b><br/>until Friday</p>"))
}
