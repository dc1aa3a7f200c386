package restclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
)

// GetVectorArrow reads vector id from its arrow ipc stream of chunk sized
// record batches and returns the values with the number of batches read.
func (c *Client) GetVectorArrow(ctx context.Context, id int64, chunk int) ([]float64, int, error) {
	resp, err := c.request(ctx, "GET", fmt.Sprintf("/Vectors/%d/arrow?chunk=%d", id, chunk), nil)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, statusError(resp)
	}

	reader, err := ipc.NewReader(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	defer reader.Release()

	ret := []float64{}
	batches := 0
	for reader.Next() {
		rec := reader.Record()
		col, ok := rec.Column(0).(*array.Float64)
		if !ok {
			return nil, 0, fmt.Errorf("unexpected column type %s", rec.Column(0).DataType())
		}
		ret = append(ret, col.Float64Values()...)
		batches++
	}
	if err := reader.Err(); err != nil {
		return nil, 0, err
	}
	return ret, batches, nil
}
