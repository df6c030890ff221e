// Package badger implements the run store on top of a badger KV.
package badger

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/storage"
)

// Store persists runs in a badger database.
type Store struct {
	*badger.DB
}

// StoreRun writes the run record, its groups and its frames in one
// transaction.
func (s *Store) StoreRun(r *storage.Run) error {
	txn := s.NewTransaction(true)
	defer txn.Discard()

	rb, err := json.Marshal(r.RunRecord)
	if err != nil {
		return err
	}
	if err := txn.SetEntry(badger.NewEntry(storage.RunKey(r.ID), rb)); err != nil {
		return err
	}

	for _, g := range r.Groups {
		gb, err := json.Marshal(g)
		if err != nil {
			return err
		}
		k := storage.GroupKey(r.ID, uint16(g.GroupID))
		if err := txn.SetEntry(badger.NewEntry(k, gb)); err != nil {
			return err
		}
	}

	for i, f := range r.Frames {
		k := storage.FrameKey(r.ID, uint16(i))
		if err := txn.SetEntry(badger.NewEntry(k, f)); err != nil {
			return err
		}
	}

	return txn.Commit()
}

// GetRun returns a full run by id.
func (s *Store) GetRun(id uint64) (*storage.Run, error) {
	run := &storage.Run{}

	err := s.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storage.RunKey(id))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(v []byte) error {
			return json.Unmarshal(v, &run.RunRecord)
		}); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := storage.GroupPrefix(id)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var g storage.GroupRecord
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &g)
			}); err != nil {
				return err
			}
			run.Groups = append(run.Groups, g)
		}

		prefix = storage.FramePrefix(id)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			f, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			run.Frames = append(run.Frames, f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Runs returns run records newest first, up to count (0 for all).
func (s *Store) Runs(count int) ([]storage.RunRecord, error) {
	var res []storage.RunRecord

	err := s.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		if count > 0 {
			opts.PrefetchSize = count
		}
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := storage.RunPrefix()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if count > 0 && len(res) >= count {
				break
			}
			var r storage.RunRecord
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &r)
			}); err != nil {
				return err
			}
			res = append(res, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteRun removes a run and its groups and frames.
func (s *Store) DeleteRun(id uint64) error {
	run, err := s.GetRun(id)
	if err != nil {
		return err
	}

	txn := s.NewTransaction(true)
	defer txn.Discard()

	if err := txn.Delete(storage.RunKey(id)); err != nil {
		return err
	}
	for _, g := range run.Groups {
		if err := txn.Delete(storage.GroupKey(id, uint16(g.GroupID))); err != nil {
			return err
		}
	}
	for i := range run.Frames {
		if err := txn.Delete(storage.FrameKey(id, uint16(i))); err != nil {
			return err
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("deleting run %d: %w", id, err)
	}
	return nil
}
