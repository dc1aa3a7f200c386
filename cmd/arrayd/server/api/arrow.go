package api

import (
	"net/http"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/sincaw/arraystream/pkg/chunk"
	"github.com/sincaw/arraystream/pkg/store"
)

const ArrowStreamType = "application/vnd.apache.arrow.stream"

// ArrowSchema of vectors served over arrow ipc
var ArrowSchema = arrow.NewSchema([]arrow.Field{
	{Name: "value", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// ArrowHandler streams a vector as arrow ipc, one record batch per chunk of ?chunk= elements
func (a *Api) ArrowHandler(w http.ResponseWriter, r *http.Request) {
	l := a.logger.With("api", "arrow")
	size, err := getIntVal(r.URL.Query(), "chunk", defaultArrowChunk, 1)
	if err != nil {
		l.Error("parse chunk fail ", err)
		responseBadRequest(w, err)
		return
	}
	rec, _, ok := a.lookup(w, r, store.KindVector)
	if !ok {
		return
	}

	values := rec.Data.Float64s()
	plan := chunk.Plan(len(values), size)
	w.Header().Set("Content-Type", ArrowStreamType)
	writer := ipc.NewWriter(w, ipc.WithSchema(ArrowSchema))
	defer writer.Close()

	mem := memory.NewGoAllocator()
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	for i := range plan {
		start, end := chunk.Span(plan, i)
		b.AppendValues(values[start:end], nil)
		col := b.NewFloat64Array()
		batch := array.NewRecord(ArrowSchema, []arrow.Array{col}, int64(end-start))
		err := writer.Write(batch)
		batch.Release()
		col.Release()
		if err != nil {
			l.Error("write record batch fail ", err)
			return
		}
	}
}
