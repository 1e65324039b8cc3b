package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.TokensPriced.Inc()
	m.TokensPriced.Inc()
	m.RunsTotal.WithLabelValues("success").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokensPriced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("success")))

	count, err := testutil.GatherAndCount(reg, "test_oracle_tokens_priced_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordHelpers(t *testing.T) {
	pricedBefore := testutil.ToFloat64(DefaultMetrics.TokensPriced)
	unpricedBefore := testutil.ToFloat64(DefaultMetrics.TokensUnpriced)

	RecordTokenPriced(true)
	RecordTokenPriced(false)
	RecordTokenPriced(false)

	assert.Equal(t, pricedBefore+1, testutil.ToFloat64(DefaultMetrics.TokensPriced))
	assert.Equal(t, unpricedBefore+2, testutil.ToFloat64(DefaultMetrics.TokensUnpriced))

	errorsBefore := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "get_token"))
	RecordDBQuery("postgres", "get_token", 0.01, nil)
	RecordDBQuery("postgres", "get_token", 0.01, errors.New("boom"))
	assert.Equal(t, errorsBefore+1, testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "get_token")))
}
