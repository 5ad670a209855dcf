package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/prometheus/prompb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// remoteWriteServer decodes every write request it receives onto the returned channel.
func remoteWriteServer(t *testing.T, status int) (*httptest.Server, <-chan *prompb.WriteRequest) {
	t.Helper()
	received := make(chan *prompb.WriteRequest, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/write", r.URL.Path)
		assert.Equal(t, "snappy", r.Header.Get("Content-Encoding"))
		assert.Equal(t, "application/x-protobuf", r.Header.Get("Content-Type"))
		assert.Equal(t, "0.1.0", r.Header.Get("X-Prometheus-Remote-Write-Version"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		decoded, err := snappy.Decode(nil, body)
		require.NoError(t, err)

		var req prompb.WriteRequest
		require.NoError(t, proto.Unmarshal(decoded, &req))
		received <- &req

		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, received
}

func findLabel(labels []prompb.Label, name string) string {
	for _, l := range labels {
		if l.Name == name {
			return l.Value
		}
	}
	return ""
}

func TestNewPusher(t *testing.T) {
	p := NewPusher(PushConfig{URL: "http://localhost:8428"})
	assert.Equal(t, "http://localhost:8428/api/v1/write", p.url)
	assert.Equal(t, DefaultTimeout, p.httpClient.Timeout)

	p = NewPusher(PushConfig{URL: "http://localhost:8428", Timeout: 5 * time.Second})
	assert.Equal(t, 5*time.Second, p.httpClient.Timeout)
}

func TestPusher_Push(t *testing.T) {
	server, received := remoteWriteServer(t, http.StatusNoContent)

	fixed := time.Date(2024, 9, 1, 7, 0, 0, 0, time.UTC)
	p := NewPusher(PushConfig{
		URL:      server.URL,
		Prefix:   "rosterd",
		Job:      "rosterd",
		Instance: "school-1",
	})
	p.now = func() time.Time { return fixed }

	err := p.Push(context.Background(),
		Sample{Name: "roster_participants", Value: 2, Labels: map[string]string{"activity": "Chess Club"}},
		Sample{Name: "roster_capacity", Value: 12, Labels: map[string]string{"activity": "Chess Club"}},
	)
	require.NoError(t, err)

	select {
	case req := <-received:
		require.Len(t, req.Timeseries, 2)

		ts := req.Timeseries[0]
		assert.Equal(t, "rosterd_roster_participants", findLabel(ts.Labels, "__name__"))
		assert.Equal(t, "rosterd", findLabel(ts.Labels, "job"))
		assert.Equal(t, "school-1", findLabel(ts.Labels, "instance"))
		assert.Equal(t, "Chess Club", findLabel(ts.Labels, "activity"))
		require.Len(t, ts.Samples, 1)
		assert.Equal(t, 2.0, ts.Samples[0].Value)
		assert.Equal(t, fixed.UnixMilli(), ts.Samples[0].Timestamp)

		for i := 1; i < len(ts.Labels); i++ {
			assert.Less(t, ts.Labels[i-1].Name, ts.Labels[i].Name, "labels must be sorted")
		}

		assert.Equal(t, 12.0, req.Timeseries[1].Samples[0].Value)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for write request")
	}
}

func TestPusher_Push_NoSamples(t *testing.T) {
	p := NewPusher(PushConfig{URL: "http://127.0.0.1:1"})
	assert.NoError(t, p.Push(context.Background()))
}

func TestPusher_Push_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad series", http.StatusBadRequest)
	}))
	defer server.Close()

	p := NewPusher(PushConfig{URL: server.URL})
	err := p.Push(context.Background(), Sample{Name: "x", Value: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
	assert.Contains(t, err.Error(), "bad series")
}
