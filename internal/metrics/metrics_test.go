package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/buildings/{id}", "404"))

	RecordAPIRequest("GET", "/api/v1/buildings/{id}", 404, 5*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/buildings/{id}", "404"))
	if after-before != 1 {
		t.Errorf("request counter delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(HTTPActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(HTTPActiveRequests); got != before {
		t.Errorf("active = %v, want %v", got, before)
	}
}

func TestRecordIngestRun(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"completed run", nil, "completed"},
		{"failed run", errors.New("read data dir: permission denied"), "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := testutil.ToFloat64(IngestRunsTotal.WithLabelValues(tt.outcome))
			inserted := testutil.ToFloat64(IngestRowsTotal.WithLabelValues("inserted"))
			errored := testutil.ToFloat64(IngestFilesTotal.WithLabelValues("errored"))

			RecordIngestRun(2, 1, 10, 3, time.Second, tt.err)

			if got := testutil.ToFloat64(IngestRunsTotal.WithLabelValues(tt.outcome)) - runs; got != 1 {
				t.Errorf("runs delta = %v, want 1", got)
			}
			if got := testutil.ToFloat64(IngestRowsTotal.WithLabelValues("inserted")) - inserted; got != 10 {
				t.Errorf("inserted delta = %v, want 10", got)
			}
			if got := testutil.ToFloat64(IngestFilesTotal.WithLabelValues("errored")) - errored; got != 1 {
				t.Errorf("errored delta = %v, want 1", got)
			}
		})
	}
}

func TestIngestSkippedAndActive(t *testing.T) {
	before := testutil.ToFloat64(IngestRunsTotal.WithLabelValues("skipped"))
	RecordIngestSkipped()
	if got := testutil.ToFloat64(IngestRunsTotal.WithLabelValues("skipped")) - before; got != 1 {
		t.Errorf("skipped delta = %v, want 1", got)
	}

	SetIngestActive(true)
	if got := testutil.ToFloat64(IngestActive); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}
	SetIngestActive(false)
	if got := testutil.ToFloat64(IngestActive); got != 0 {
		t.Errorf("active = %v, want 0", got)
	}
}
