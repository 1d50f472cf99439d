package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Serializers for persisted core types. Field order is part of the
// storage format; append new fields at the end only.
var (
	IDMUS                = idMUS{}
	DocumentMUS          = documentMUS{}
	ChunkMUS             = chunkMUS{}
	CalibrationRecordMUS = calibrationRecordMUS{}
)

var (
	float32SliceMUS = ord.NewSliceSer[float32](raw.Float32)
	stringSliceMUS  = ord.NewSliceSer[string](ord.String)
)

// Timestamps are stored as microsecond Unix values, normalized to UTC
// on load.
func marshalTime(v time.Time, bs []byte) int {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(v time.Time) int {
	return varint.Int64.Size(v.UnixMicro())
}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type documentMUS struct{}

func (documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += varint.Int64.Marshal(v.Size, bs[n:])
	n += ord.String.Marshal(v.Format, bs[n:])
	n += varint.Int.Marshal(int(v.Status), bs[n:])
	n += marshalTime(v.IngestedAt, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Size, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Format, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var status int
	if status, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.Status = DocumentStatus(status)
	if v.IngestedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (documentMUS) Size(v Document) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Title)
	size += varint.Int64.Size(v.Size)
	size += ord.String.Size(v.Format)
	size += varint.Int.Size(int(v.Status))
	size += sizeTime(v.IngestedAt)
	size += sizeTime(v.InsertedAt)
	size += sizeTime(v.UpdatedAt)
	return size
}

type chunkMUS struct{}

func (chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.DocumentId, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += float32SliceMUS.Marshal(v.Vector, bs[n:])
	n += stringSliceMUS.Marshal(v.HierarchyPath, bs[n:])
	n += varint.Int.Marshal(v.Page, bs[n:])
	n += varint.Int.Marshal(v.StartOffset, bs[n:])
	n += varint.Int.Marshal(v.EndOffset, bs[n:])
	n += varint.Int.Marshal(int(v.Status), bs[n:])
	n += varint.Uint64.Marshal(v.Seq, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Vector, n1, err = float32SliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.HierarchyPath, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Page, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.StartOffset, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.EndOffset, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var status int
	if status, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.Status = DocumentStatus(status)
	if v.Seq, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (chunkMUS) Size(v Chunk) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.DocumentId)
	size += ord.String.Size(v.Text)
	size += float32SliceMUS.Size(v.Vector)
	size += stringSliceMUS.Size(v.HierarchyPath)
	size += varint.Int.Size(v.Page)
	size += varint.Int.Size(v.StartOffset)
	size += varint.Int.Size(v.EndOffset)
	size += varint.Int.Size(int(v.Status))
	size += varint.Uint64.Size(v.Seq)
	size += sizeTime(v.InsertedAt)
	size += sizeTime(v.UpdatedAt)
	return size
}

type calibrationRecordMUS struct{}

func (calibrationRecordMUS) Marshal(v CalibrationRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.QueryId, bs[n:])
	n += IDMUS.Marshal(v.ChunkId, bs[n:])
	n += raw.Float64.Marshal(v.Predicted, bs[n:])
	n += ord.Bool.Marshal(v.Correct, bs[n:])
	n += marshalTime(v.RecordedAt, bs[n:])
	return n
}

func (calibrationRecordMUS) Unmarshal(bs []byte) (v CalibrationRecord, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.QueryId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ChunkId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Predicted, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Correct, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.RecordedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (calibrationRecordMUS) Size(v CalibrationRecord) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.QueryId)
	size += IDMUS.Size(v.ChunkId)
	size += raw.Float64.Size(v.Predicted)
	size += ord.Bool.Size(v.Correct)
	size += sizeTime(v.RecordedAt)
	return size
}
