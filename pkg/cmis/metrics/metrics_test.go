package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/metrics"
)

func TestResult(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "success"},
		{"kind", cmis.Errorf(cmis.ErrObjectNotFound, "x"), "object_not_found"},
		{"wrapped kind", &cmis.RepositoryError{RepositoryID: "r", Op: "query", Err: cmis.ErrPermissionDenied}, "permission_denied"},
		{"plain", errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, metrics.Result(tt.err))
		})
	}
}

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	r.ObserveOperation("repo", "getObject", time.Millisecond, nil)
	r.ObserveOperation("repo", "getObject", time.Millisecond, nil)
	r.ObserveOperation("repo", "getObject", time.Millisecond, cmis.ErrObjectNotFound)
	r.ObserveOperation("repo", "", time.Millisecond, nil)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 2)

	count, err := testutil.GatherAndCount(reg, "cmis_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per result")
	count, err = testutil.GatherAndCount(reg, "cmis_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	t.Run("duplicate registration", func(t *testing.T) {
		_, err := metrics.NewRecorder(reg)
		assert.Error(t, err)
	})
}
