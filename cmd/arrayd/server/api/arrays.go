package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/sincaw/arraystream/pkg/codec"
	"github.com/sincaw/arraystream/pkg/store"
)

const maxBodyBytes = 64 << 20

// VectorDoc is the json form of a stored vector.
type VectorDoc struct {
	ID    *int64    `json:"id,omitempty"`
	Value []float64 `json:"value"`
}

type MatrixDoc struct {
	ID    *int64      `json:"id,omitempty"`
	Value [][]float64 `json:"value"`
}

type valueBody struct {
	Value json.RawMessage `json:"value"`
}

var errBodyTooLarge = errors.New("request body too large")

// readValue decodes the "value" key of a request body into v.
func (a *Api) readValue(r *http.Request, kind store.Kind, v interface{}) error {
	l := a.logger.With("api", "post")
	b, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return errors.Wrapf(errBodyTooLarge, "larger than %s", humanize.Bytes(uint64(mbe.Limit)))
		}
		return errors.Wrap(err, "read request body")
	}
	l.Infof("size of message: %s", humanize.Bytes(uint64(len(b))))

	body := valueBody{}
	if err := json.Unmarshal(b, &body); err != nil {
		return errors.New("no JSON-format (i.e. application/json) body was provided in the request")
	}
	if len(body.Value) == 0 || string(body.Value) == "null" {
		return errors.Errorf("no %s has been provided, expected key: 'value'", kind)
	}
	if err := json.Unmarshal(body.Value, v); err != nil {
		return errors.Wrapf(err, "invalid %s value", kind)
	}
	return nil
}

// toMatrix flattens rows, every row must have the same length.
func toMatrix(rows [][]float64) (store.Record, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return store.Record{}, fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return store.MatrixRecord(len(rows), cols, codec.DoubleArray(data)), nil
}

func fromMatrix(rec store.Record) [][]float64 {
	values := rec.Data.Float64s()
	ret := make([][]float64, rec.Rows)
	for i := range ret {
		ret[i] = values[i*rec.Cols : (i+1)*rec.Cols]
	}
	return ret
}

func (a *Api) post(w http.ResponseWriter, rec store.Record) {
	l := a.logger.With("api", "post")
	id, err := a.arrays.Post(rec)
	if err != nil {
		l.Error("post array fail ", err)
		responseServerError(w, err)
		return
	}
	l.Infof("%s with id %d has been inserted into the server's DB", rec.Kind, id)
	key := "vector"
	if rec.Kind == store.KindMatrix {
		key = "matrix"
	}
	responseJSON(w, http.StatusCreated, map[string]interface{}{key: map[string]int64{"id": id}})
}

// PostVectorHandler stores {"value": [...]}
func (a *Api) PostVectorHandler(w http.ResponseWriter, r *http.Request) {
	var value []float64
	if err := a.readValue(r, store.KindVector, &value); err != nil {
		responseBodyError(w, err)
		return
	}
	a.post(w, store.VectorRecord(codec.DoubleArray(value)))
}

// PostMatrixHandler stores {"value": [[...], ...]}
func (a *Api) PostMatrixHandler(w http.ResponseWriter, r *http.Request) {
	var value [][]float64
	if err := a.readValue(r, store.KindMatrix, &value); err != nil {
		responseBodyError(w, err)
		return
	}
	rec, err := toMatrix(value)
	if err != nil {
		responseBadRequest(w, err)
		return
	}
	a.post(w, rec)
}

func idVar(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// load returns the record id when it holds kind
func (a *Api) load(id int64, kind store.Kind) (store.Record, error) {
	rec, err := a.arrays.Get(id)
	if err != nil {
		return store.Record{}, err
	}
	if rec.Kind != kind {
		return store.Record{}, errors.Wrapf(store.ErrNotFound, "no %s with id %d", kind, id)
	}
	return rec, nil
}

func (a *Api) lookup(w http.ResponseWriter, r *http.Request, kind store.Kind) (store.Record, int64, bool) {
	id, err := idVar(r)
	if err != nil {
		responseBadRequest(w, err)
		return store.Record{}, 0, false
	}
	rec, err := a.load(id, kind)
	if err != nil {
		responseStoreError(w, err)
		return store.Record{}, 0, false
	}
	return rec, id, true
}

func (a *Api) GetVectorHandler(w http.ResponseWriter, r *http.Request) {
	rec, id, ok := a.lookup(w, r, store.KindVector)
	if !ok {
		return
	}
	responseJSON(w, http.StatusOK, map[string]VectorDoc{"vector": {ID: &id, Value: rec.Data.Float64s()}})
}

func (a *Api) GetMatrixHandler(w http.ResponseWriter, r *http.Request) {
	rec, id, ok := a.lookup(w, r, store.KindMatrix)
	if !ok {
		return
	}
	responseJSON(w, http.StatusOK, map[string]MatrixDoc{"matrix": {ID: &id, Value: fromMatrix(rec)}})
}

// DeleteHandler removes an array of kind, deleting a missing id succeeds
func (a *Api) DeleteHandler(kind store.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := a.logger.With("api", "delete")
		id, err := idVar(r)
		if err != nil {
			responseBadRequest(w, err)
			return
		}
		if _, err := a.load(id, kind); errors.Is(err, store.ErrNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err := a.arrays.Delete(id); err != nil {
			l.Error("delete array fail ", err)
			responseServerError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
