package store

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/sincaw/arraystream/pkg/codec"
)

// recordDoc is the persisted form of a Record, data keeps the host order encoding.
type recordDoc struct {
	Kind int32  `bson:"kind"`
	Type int32  `bson:"type"`
	Rows int64  `bson:"rows"`
	Cols int64  `bson:"cols"`
	Data []byte `bson:"data"`
}

func marshalRecord(rec Record) ([]byte, error) {
	return bson.Marshal(recordDoc{
		Kind: int32(rec.Kind),
		Type: int32(rec.Data.Type),
		Rows: int64(rec.Rows),
		Cols: int64(rec.Cols),
		Data: codec.Serialize(rec.Data, 0, rec.Data.Len()),
	})
}

func unmarshalRecord(val []byte) (Record, error) {
	var doc recordDoc
	if err := bson.Unmarshal(val, &doc); err != nil {
		return Record{}, err
	}
	rows, cols := int(doc.Rows), int(doc.Cols)
	data, err := codec.Deserialize(doc.Data, rows*cols, codec.DataType(doc.Type))
	if err != nil {
		return Record{}, err
	}
	return Record{Kind: Kind(doc.Kind), Rows: rows, Cols: cols, Data: data}, nil
}
