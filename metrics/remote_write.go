package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/prometheus/prompb"
)

// DefaultTimeout is the default timeout for remote write requests.
const DefaultTimeout = 30 * time.Second

// Sample is a single point-in-time metric value.
type Sample struct {
	Name   string
	Value  float64
	Labels map[string]string
	// Timestamp defaults to the time of the push when zero.
	Timestamp time.Time
}

// PushConfig configures a Pusher.
type PushConfig struct {
	// URL is the base URL of the remote write endpoint (e.g. "http://localhost:8428").
	URL string
	// Prefix is prepended to every metric name, followed by an underscore.
	Prefix string
	// Job and Instance are added as labels to every sample when set.
	Job      string
	Instance string
	// Timeout is the HTTP client timeout. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Pusher sends samples to a Prometheus remote write endpoint.
type Pusher struct {
	url        string
	httpClient *http.Client
	prefix     string
	job        string
	instance   string
	now        func() time.Time
}

// NewPusher creates a Pusher for the given configuration.
func NewPusher(cfg PushConfig) *Pusher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Pusher{
		url:        cfg.URL + "/api/v1/write",
		httpClient: &http.Client{Timeout: timeout},
		prefix:     cfg.Prefix,
		job:        cfg.Job,
		instance:   cfg.Instance,
		now:        time.Now,
	}
}

// Push sends all samples in a single write request.
func (p *Pusher) Push(ctx context.Context, samples ...Sample) error {
	if len(samples) == 0 {
		return nil
	}

	now := p.now()
	req := &prompb.WriteRequest{
		Timeseries: make([]prompb.TimeSeries, 0, len(samples)),
	}
	for _, s := range samples {
		req.Timeseries = append(req.Timeseries, p.toTimeSeries(s, now))
	}

	data, err := proto.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling write request: %w", err)
	}
	compressed := snappy.Encode(nil, data)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// toTimeSeries converts a Sample to remote write format. Labels are sorted by
// name as the remote write protocol requires.
func (p *Pusher) toTimeSeries(s Sample, now time.Time) prompb.TimeSeries {
	name := s.Name
	if p.prefix != "" {
		name = p.prefix + "_" + name
	}

	labels := make([]prompb.Label, 0, len(s.Labels)+3)
	labels = append(labels, prompb.Label{Name: "__name__", Value: name})
	if p.job != "" {
		labels = append(labels, prompb.Label{Name: "job", Value: p.job})
	}
	if p.instance != "" {
		labels = append(labels, prompb.Label{Name: "instance", Value: p.instance})
	}
	for k, v := range s.Labels {
		labels = append(labels, prompb.Label{Name: k, Value: v})
	}
	sort.Slice(labels, func(i, j int) bool {
		return labels[i].Name < labels[j].Name
	})

	ts := s.Timestamp
	if ts.IsZero() {
		ts = now
	}

	return prompb.TimeSeries{
		Labels:  labels,
		Samples: []prompb.Sample{{Value: s.Value, Timestamp: ts.UnixMilli()}},
	}
}
