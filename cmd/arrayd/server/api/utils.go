package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sincaw/arraystream/pkg/store"
)

// getIntVal gets int value by key from url request, it returns default value when key not found
func getIntVal(vars url.Values, key string, defaultVal, minVal int) (int, error) {
	if v, ok := vars[key]; ok {
		l, err := strconv.Atoi(v[0])
		if err != nil {
			return 0, err
		}
		if l < minVal {
			return 0, fmt.Errorf("wrong %s %d", key, l)
		}
		return l, nil
	}
	return defaultVal, nil
}

type errorBody struct {
	Message string `json:"message"`
}

func responseJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func responseBadRequest(w http.ResponseWriter, err error) {
	responseJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
}

// responseBodyError answers 413 for oversized bodies, 400 otherwise
func responseBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		responseJSON(w, http.StatusRequestEntityTooLarge, errorBody{Message: err.Error()})
		return
	}
	responseBadRequest(w, err)
}

func responseServerError(w http.ResponseWriter, err error) {
	responseJSON(w, http.StatusInternalServerError, errorBody{Message: err.Error()})
}

// responseStoreError answers 404 for unknown ids
func responseStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		responseJSON(w, http.StatusNotFound, errorBody{Message: err.Error()})
		return
	}
	responseServerError(w, err)
}
