package statsclient

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
)

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "https://calibration.stats.filbeam.io", Endpoint(chain.NetworkCalibration))
	assert.Equal(t, "https://stats.filbeam.io", Endpoint(chain.NetworkMainnet))
}

func TestDataSetQuota_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data-set/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"cdnEgressQuota":"1000000000000000000","cacheMissEgressQuota":"500000000000000000"}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	quota, err := c.DataSetQuota(context.Background(), big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", quota.CDNEgressQuota.String())
	assert.Equal(t, "500000000000000000", quota.CacheMissEgressQuota.String())
}

func TestDataSetQuota_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.DataSetQuota(context.Background(), big.NewInt(99))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindDataSetNotFound))
}

func TestDataSetQuota_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"cdnEgressQuota":"not-a-number","cacheMissEgressQuota":"0"}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.DataSetQuota(context.Background(), big.NewInt(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindMalformedServerResponse))
}

func TestDataSetQuota_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.DataSetQuota(context.Background(), big.NewInt(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindHTTPError))
}
