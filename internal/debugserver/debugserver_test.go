package debugserver_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/myrjola/totem/internal/debugserver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestHandle(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_test_total",
		Help: "Test counter",
	})
	reg.MustRegister(counter)
	counter.Inc()

	mux := http.NewServeMux()
	debugserver.Handle(mux, reg)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "kiosk_test_total 1")

	resp, err = srv.Client().Get(srv.URL + "/debug/pprof/")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
