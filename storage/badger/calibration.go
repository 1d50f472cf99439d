// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// CalibrationRepository implements storage.CalibrationRepository for BadgerDB.
// Records are keyed by recording time so history scans are chronological.
type CalibrationRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.CalibrationRepository = (*CalibrationRepository)(nil)

// NewCalibrationRepository creates a new CalibrationRepository.
func NewCalibrationRepository(backend *Backend) (storage.CalibrationRepository, error) {
	idSeq, err := backend.GetSequence(calibrationSeqName)
	if err != nil {
		return nil, err
	}

	return &CalibrationRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *CalibrationRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *CalibrationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AppendRecords appends calibration records to the history.
func (r *CalibrationRepository) AppendRecords(ctx context.Context, records ...*core.CalibrationRecord) ([]*core.CalibrationRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record.RecordedAt.IsZero() {
				record.RecordedAt = time.Now().UTC()
			}
			if err := core.ValidateCalibrationRecord(record); err != nil {
				return err
			}

			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			record.Id = core.ID(nextID)

			key := makeCalibrationKey(record.RecordedAt, record.Id)
			if err := tx.Set(key, storage.MarshalCalibrationRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// GetRecordsSince retrieves records with RecordedAt >= since, chronological.
func (r *CalibrationRepository) GetRecordsSince(ctx context.Context, since time.Time) ([]*core.CalibrationRecord, error) {
	var results []*core.CalibrationRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(calibrationPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		startKey := makePartialCalibrationKey(since)
		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			var record *core.CalibrationRecord
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalCalibrationRecord(val)
				return err
			}); err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// ListRecords retrieves all calibration records, chronological.
func (r *CalibrationRepository) ListRecords(ctx context.Context) ([]*core.CalibrationRecord, error) {
	return r.GetRecordsSince(ctx, time.UnixMicro(0))
}

// CountRecords returns the total number of calibration records.
func (r *CalibrationRepository) CountRecords(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(calibrationPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}
