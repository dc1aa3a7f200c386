// Package restclient talks to the http api of arrayd: the json resources,
// the arrow vector stream and the json-rpc ops service.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sincaw/arraystream/pkg/store"
)

var (
	ErrStatus = fmt.Errorf("error status code")
)

// StatusError is a non successful response. It matches ErrStatus, and
// store.ErrNotFound for 404 responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus || (target == store.ErrNotFound && e.Code == http.StatusNotFound)
}

type Client struct {
	http.Client

	base   string
	header http.Header
}

// New client of the api served at base, e.g. http://localhost:5000
func New(base string, header map[string]string) *Client {
	h := http.Header{}
	for k, v := range header {
		h.Set(k, v)
	}
	return &Client{
		base:   strings.TrimSuffix(base, "/"),
		header: h,
	}
}

func (c *Client) request(ctx context.Context, method, uri string, body interface{}) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+uri, rd)
	if err != nil {
		return nil, err
	}
	req.Header = c.header.Clone()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.Do(req)
}

// do sends body as json and decodes a response of status want into out
func (c *Client) do(ctx context.Context, method, uri string, body interface{}, want int, out interface{}) error {
	resp, err := c.request(ctx, method, uri, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(resp *http.Response) error {
	e := &StatusError{Code: resp.StatusCode}
	msg := struct {
		Message string `json:"message"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&msg); err == nil {
		e.Message = msg.Message
	}
	return e
}

type idDoc struct {
	ID int64 `json:"id"`
}

func (c *Client) PostVector(ctx context.Context, value []float64) (int64, error) {
	out := map[string]idDoc{}
	if err := c.do(ctx, "POST", "/Vectors", map[string]interface{}{"value": value}, http.StatusCreated, &out); err != nil {
		return 0, err
	}
	return out["vector"].ID, nil
}

func (c *Client) PostMatrix(ctx context.Context, value [][]float64) (int64, error) {
	out := map[string]idDoc{}
	if err := c.do(ctx, "POST", "/Matrices", map[string]interface{}{"value": value}, http.StatusCreated, &out); err != nil {
		return 0, err
	}
	return out["matrix"].ID, nil
}

func (c *Client) GetVector(ctx context.Context, id int64) ([]float64, error) {
	out := map[string]struct {
		Value []float64 `json:"value"`
	}{}
	if err := c.do(ctx, "GET", fmt.Sprintf("/Vectors/%d", id), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out["vector"].Value, nil
}

func (c *Client) GetMatrix(ctx context.Context, id int64) ([][]float64, error) {
	out := map[string]struct {
		Value [][]float64 `json:"value"`
	}{}
	if err := c.do(ctx, "GET", fmt.Sprintf("/Matrices/%d", id), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out["matrix"].Value, nil
}

func (c *Client) DeleteVector(ctx context.Context, id int64) error {
	return c.do(ctx, "DELETE", fmt.Sprintf("/Vectors/%d", id), nil, http.StatusNoContent, nil)
}

func (c *Client) DeleteMatrix(ctx context.Context, id int64) error {
	return c.do(ctx, "DELETE", fmt.Sprintf("/Matrices/%d", id), nil, http.StatusNoContent, nil)
}

func (c *Client) op(ctx context.Context, uri, key string, id1, id2 int64, result interface{}) error {
	out := map[string]json.RawMessage{}
	if err := c.do(ctx, "GET", uri, map[string]int64{"id1": id1, "id2": id2}, http.StatusOK, &out); err != nil {
		return err
	}
	doc := struct {
		Result interface{} `json:"result"`
	}{Result: result}
	raw, ok := out[key]
	if !ok {
		return fmt.Errorf("response without %q", key)
	}
	return json.Unmarshal(raw, &doc)
}

func (c *Client) AddVectors(ctx context.Context, id1, id2 int64) ([]float64, error) {
	var ret []float64
	err := c.op(ctx, "/add/Vectors", "vector-addition", id1, id2, &ret)
	return ret, err
}

// MultiplyVectors returns the dot product of two stored vectors.
func (c *Client) MultiplyVectors(ctx context.Context, id1, id2 int64) (float64, error) {
	var ret float64
	err := c.op(ctx, "/multiply/Vectors", "vector-multiplication", id1, id2, &ret)
	return ret, err
}

func (c *Client) AddMatrices(ctx context.Context, id1, id2 int64) ([][]float64, error) {
	var ret [][]float64
	err := c.op(ctx, "/add/Matrices", "matrix-addition", id1, id2, &ret)
	return ret, err
}

func (c *Client) MultiplyMatrices(ctx context.Context, id1, id2 int64) ([][]float64, error) {
	var ret [][]float64
	err := c.op(ctx, "/multiply/Matrices", "matrix-multiplication", id1, id2, &ret)
	return ret, err
}
