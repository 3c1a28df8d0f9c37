package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordUpstream(t *testing.T) {
	before := testutil.ToFloat64(UpstreamFetchTotal.WithLabelValues("organizations", OutcomeMalformed))

	RecordUpstream("organizations", OutcomeMalformed)
	RecordUpstream("organizations", OutcomeMalformed)

	after := testutil.ToFloat64(UpstreamFetchTotal.WithLabelValues("organizations", OutcomeMalformed))
	assert.Equal(t, before+2, after)
}
