package restclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sincaw/arraystream/pkg/linalg"
	"github.com/sincaw/arraystream/pkg/store"
)

func TestStatusError(t *testing.T) {
	require.ErrorIs(t, &StatusError{Code: http.StatusNotFound}, store.ErrNotFound)
	require.ErrorIs(t, &StatusError{Code: http.StatusBadRequest}, ErrStatus)
	require.NotErrorIs(t, &StatusError{Code: http.StatusBadRequest}, store.ErrNotFound)
	require.Equal(t, "status 400: bad", (&StatusError{Code: 400, Message: "bad"}).Error())
}

func TestRPCErrorReason(t *testing.T) {
	require.ErrorIs(t, &RPCError{Reason: "NOT_FOUND"}, store.ErrNotFound)
	require.ErrorIs(t, &RPCError{Reason: "SIZE_MISMATCH"}, linalg.ErrSizeMismatch)
	require.NotErrorIs(t, &RPCError{}, store.ErrNotFound)
}

func TestHeaderAndMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "no vector has been provided"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", map[string]string{"Authorization": "token"})
	_, err := c.PostVector(context.Background(), []float64{1})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadRequest, se.Code)
	require.Equal(t, "no vector has been provided", se.Message)
}
