package health

import (
	"context"
	"net/http"
	"testing"

	"github.com/bsv-blockchain/txflow/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAll(t *testing.T) {
	ok := Check{Name: "ok", Check: func(context.Context, bool) (int, string, error) {
		return http.StatusOK, "fine", nil
	}}
	nested := Check{Name: "nested", Check: func(context.Context, bool) (int, string, error) {
		return http.StatusOK, `{"resource": "inner"}`, nil
	}}
	failing := Check{Name: "failing", Check: func(context.Context, bool) (int, string, error) {
		return http.StatusServiceUnavailable, `quote " inside`, errors.NewServiceUnavailableError("down")
	}}

	t.Run("all healthy", func(t *testing.T) {
		status, body, err := CheckAll(context.Background(), false, []Check{ok, nested})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)

		var v map[string]interface{}
		require.NoError(t, jsoniter.Unmarshal([]byte(body), &v))
		assert.Len(t, v["dependencies"], 2)
	})

	t.Run("one failing", func(t *testing.T) {
		status, body, err := CheckAll(context.Background(), true, []Check{ok, failing})
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, status)

		var v map[string]interface{}
		require.NoError(t, jsoniter.Unmarshal([]byte(body), &v))
		assert.Contains(t, body, "down")
	})
}
