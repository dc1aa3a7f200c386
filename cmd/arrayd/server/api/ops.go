package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/pkg/errors"

	"github.com/sincaw/arraystream/pkg/codec"
	"github.com/sincaw/arraystream/pkg/linalg"
	"github.com/sincaw/arraystream/pkg/store"
)

type op int

const (
	opAddVectors op = iota
	opMultiplyVectors
	opAddMatrices
	opMultiplyMatrices
)

func (o op) kind() store.Kind {
	if o == opAddMatrices || o == opMultiplyMatrices {
		return store.KindMatrix
	}
	return store.KindVector
}

func (o op) name() string {
	if o == opAddVectors || o == opAddMatrices {
		return "addition"
	}
	return "multiplication"
}

// key of the response document, e.g. vector-addition
func (o op) key() string {
	return o.kind().String() + "-" + o.name()
}

// compute runs o over the arrays id1 and id2. Vector products are scalars,
// every other result is a vector or a matrix of rows.
func (a *Api) compute(o op, id1, id2 int64) (interface{}, error) {
	left, err := a.load(id1, o.kind())
	if err != nil {
		return nil, err
	}
	right, err := a.load(id2, o.kind())
	if err != nil {
		return nil, err
	}

	switch o {
	case opAddVectors:
		v, err := linalg.AddVectors(left.Data, right.Data)
		if err != nil {
			return nil, err
		}
		return v.Float64s(), nil
	case opMultiplyVectors:
		v, err := linalg.MultiplyVectors(left.Data, right.Data)
		if err != nil {
			return nil, err
		}
		return v.Float64s()[0], nil
	}

	l := linalg.Matrix{Rows: left.Rows, Cols: left.Cols, Data: left.Data}
	r := linalg.Matrix{Rows: right.Rows, Cols: right.Cols, Data: right.Data}
	var m linalg.Matrix
	if o == opAddMatrices {
		m, err = linalg.AddMatrices(l, r)
	} else {
		m, err = linalg.MultiplyMatrices(l, r)
	}
	if err != nil {
		return nil, err
	}
	return fromMatrix(store.MatrixRecord(m.Rows, m.Cols, m.Data)), nil
}

type opsBody struct {
	ID1 *int64 `json:"id1"`
	ID2 *int64 `json:"id2"`
}

// OpsHandler runs o over the ids given in the body {"id1": .., "id2": ..}
func (a *Api) OpsHandler(o op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := a.logger.With("api", o.key())
		body := opsBody{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			responseBadRequest(w, errors.New("no JSON-format (i.e. application/json) body was provided in the request"))
			return
		}
		if body.ID1 == nil || body.ID2 == nil {
			responseBadRequest(w, fmt.Errorf("arguments for %s operation with %s are not provided, expected keys: 'id1', 'id2'", o.name(), o.kind()))
			return
		}
		res, err := a.compute(o, *body.ID1, *body.ID2)
		if err != nil {
			l.Infof("operation on %d and %d fail %v", *body.ID1, *body.ID2, err)
			responseOpError(w, err)
			return
		}
		responseJSON(w, http.StatusOK, map[string]interface{}{o.key(): map[string]interface{}{"result": res}})
	}
}

func responseOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		responseStoreError(w, err)
	case errors.Is(err, linalg.ErrSizeMismatch), errors.Is(err, codec.ErrMixedTypes):
		responseBadRequest(w, err)
	default:
		responseServerError(w, err)
	}
}

// Reasons carried in the data of json-rpc errors
const (
	ReasonNotFound     = "NOT_FOUND"
	ReasonSizeMismatch = "SIZE_MISMATCH"
)

// Ops is the json-rpc service over the same operations
type Ops struct {
	api *Api
}

type OpsArgs struct {
	ID1 int64 `json:"id1"`
	ID2 int64 `json:"id2"`
}

type VectorReply struct {
	Result []float64 `json:"result"`
}

type ScalarReply struct {
	Result float64 `json:"result"`
}

type MatrixReply struct {
	Result [][]float64 `json:"result"`
}

func rpcError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &json2.Error{Code: json2.E_BAD_PARAMS, Message: err.Error(), Data: ReasonNotFound}
	case errors.Is(err, linalg.ErrSizeMismatch):
		return &json2.Error{Code: json2.E_BAD_PARAMS, Message: err.Error(), Data: ReasonSizeMismatch}
	}
	return &json2.Error{Code: json2.E_SERVER, Message: err.Error()}
}

func (s *Ops) AddVectors(_ *http.Request, args *OpsArgs, reply *VectorReply) error {
	res, err := s.api.compute(opAddVectors, args.ID1, args.ID2)
	if err != nil {
		return rpcError(err)
	}
	reply.Result = res.([]float64)
	return nil
}

func (s *Ops) MultiplyVectors(_ *http.Request, args *OpsArgs, reply *ScalarReply) error {
	res, err := s.api.compute(opMultiplyVectors, args.ID1, args.ID2)
	if err != nil {
		return rpcError(err)
	}
	reply.Result = res.(float64)
	return nil
}

func (s *Ops) AddMatrices(_ *http.Request, args *OpsArgs, reply *MatrixReply) error {
	res, err := s.api.compute(opAddMatrices, args.ID1, args.ID2)
	if err != nil {
		return rpcError(err)
	}
	reply.Result = res.([][]float64)
	return nil
}

func (s *Ops) MultiplyMatrices(_ *http.Request, args *OpsArgs, reply *MatrixReply) error {
	res, err := s.api.compute(opMultiplyMatrices, args.ID1, args.ID2)
	if err != nil {
		return rpcError(err)
	}
	reply.Result = res.([][]float64)
	return nil
}

func (a *Api) rpcServer() http.Handler {
	s := rpc.NewServer()
	s.RegisterCodec(json2.NewCodec(), "application/json")
	if err := s.RegisterService(&Ops{api: a}, "Ops"); err != nil {
		panic(err)
	}
	return s
}
