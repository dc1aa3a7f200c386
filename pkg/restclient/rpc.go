package restclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/sincaw/arraystream/pkg/linalg"
	"github.com/sincaw/arraystream/pkg/store"
)

// RPCError is a json-rpc error answer of the ops service.
type RPCError struct {
	Code    json2.ErrorCode
	Message string
	Reason  string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("json-rpc error %d: %s", e.Code, e.Message)
}

func (e *RPCError) Is(target error) bool {
	switch e.Reason {
	case "NOT_FOUND":
		return target == store.ErrNotFound
	case "SIZE_MISMATCH":
		return target == linalg.ErrSizeMismatch
	}
	return false
}

// CleanlyCloseBody drains and closes an http response body
func CleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

// Call invokes method ("Ops.AddVectors", ...) on the json-rpc endpoint
func (c *Client) Call(ctx context.Context, method string, params, reply interface{}) error {
	body, err := json2.EncodeClientRequest(method, params)
	if err != nil {
		return fmt.Errorf("failed to encode client params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/rpc", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("failed to issue request: %w", err)
	}
	defer CleanlyCloseBody(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json2.DecodeClientResponse(resp.Body, reply); err != nil {
		if e, ok := err.(*json2.Error); ok {
			ret := &RPCError{Code: e.Code, Message: e.Message}
			if s, ok := e.Data.(string); ok {
				ret.Reason = s
			}
			return ret
		}
		return fmt.Errorf("failed to decode client response: %w", err)
	}
	return nil
}

type opsArgs struct {
	ID1 int64 `json:"id1"`
	ID2 int64 `json:"id2"`
}

type vectorReply struct {
	Result []float64 `json:"result"`
}

type scalarReply struct {
	Result float64 `json:"result"`
}

type matrixReply struct {
	Result [][]float64 `json:"result"`
}

func (c *Client) CallAddVectors(ctx context.Context, id1, id2 int64) ([]float64, error) {
	reply := vectorReply{}
	err := c.Call(ctx, "Ops.AddVectors", opsArgs{id1, id2}, &reply)
	return reply.Result, err
}

func (c *Client) CallMultiplyVectors(ctx context.Context, id1, id2 int64) (float64, error) {
	reply := scalarReply{}
	err := c.Call(ctx, "Ops.MultiplyVectors", opsArgs{id1, id2}, &reply)
	return reply.Result, err
}

func (c *Client) CallAddMatrices(ctx context.Context, id1, id2 int64) ([][]float64, error) {
	reply := matrixReply{}
	err := c.Call(ctx, "Ops.AddMatrices", opsArgs{id1, id2}, &reply)
	return reply.Result, err
}

func (c *Client) CallMultiplyMatrices(ctx context.Context, id1, id2 int64) ([][]float64, error) {
	reply := matrixReply{}
	err := c.Call(ctx, "Ops.MultiplyMatrices", opsArgs{id1, id2}, &reply)
	return reply.Result, err
}
