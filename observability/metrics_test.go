package observability

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offer-harvester/models"
)

func TestObserveRun(t *testing.T) {
	m := NewMetrics()

	run := models.NewHarvestRun("run-1", time.Now())
	run.Append(
		models.OfferRecord{Source: models.SourceCBEngine, Title: "a"},
		models.OfferRecord{Source: models.SourceCBEngine, Title: "b"},
		models.OfferRecord{Source: models.SourceHotmart, Title: "c"},
	)
	run.RecordFailure(&models.AdapterError{Source: models.SourceClickBank, Err: errors.New("timeout")})
	run.RecordFailure(errors.New("untyped"))

	m.ObserveRun(run, true, 1500*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OffersHarvested.WithLabelValues("CBEngine")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OffersHarvested.WithLabelValues("Hotmart")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterFailures.WithLabelValues("ClickBank")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterFailures.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("success")))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.RunDuration))

	m.ObserveRun(nil, false, time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("failure")))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveRun(models.NewHarvestRun("r", time.Now()), true, time.Second)

	path := filepath.Join(t.TempDir(), "offer_harvester.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `offer_harvester_runs_total{outcome="success"} 1`)
}
