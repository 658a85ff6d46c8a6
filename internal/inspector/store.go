package inspector

import "fmt"

// Store is the canonical ordered collection of records for one upload.
// Length is fixed after construction; edits replace single fields in place.
// The Store itself is not goroutine safe — the owning Dataset serializes
// access.
type Store struct {
	columns []string
	records []Record
}

// NewStore builds a store from a parse result.
func NewStore(res *ParseResult) *Store {
	return &Store{columns: res.Columns, records: res.Records}
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Columns returns the header in source order.
func (s *Store) Columns() []string { return s.columns }

// Records returns the record slice in original parse order. Callers must
// treat it as read only.
func (s *Store) Records() []Record { return s.records }

// Clone returns a deep copy of the store. Exports run against a clone so
// edits arriving mid-export cannot race the serialization.
func (s *Store) Clone() *Store {
	records := make([]Record, len(s.records))
	for i, rec := range s.records {
		rec.Fields = cloneFields(rec.Fields)
		records[i] = rec
	}
	return &Store{columns: append([]string(nil), s.columns...), records: records}
}

func cloneFields(fields map[string]CellValue) map[string]CellValue {
	out := make(map[string]CellValue, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Get returns the record with the given identity.
func (s *Store) Get(id int) (*Record, bool) {
	if id < 0 || id >= len(s.records) {
		return nil, false
	}
	return &s.records[id], true
}

// UpdateField replaces one named field on one record, addressed by stable
// identity, leaving everything else untouched.
func (s *Store) UpdateField(id int, field string, value CellValue) error {
	rec, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("no record with id %d", id)
	}
	rec.Fields[field] = value
	return nil
}

// SetRemark updates a record's free-text annotation.
func (s *Store) SetRemark(id int, remark string) error {
	rec, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("no record with id %d", id)
	}
	rec.Remark = remark
	return nil
}

// SetFaulty updates a record's fault flag.
func (s *Store) SetFaulty(id int, faulty bool) error {
	rec, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("no record with id %d", id)
	}
	rec.IsFaulty = faulty
	return nil
}
