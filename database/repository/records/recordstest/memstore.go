// Package recordstest provides an in-memory recordsRepo.Store for tests.
package recordstest

import (
	"context"
	"reflect"
	"sync"

	"homehub/database"
	recordsRepo "homehub/database/repository/records"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore keeps documents as BSON maps. Filters support top-level
// equality only; sort order is insertion order.
type MemStore[T any] struct {
	mu   sync.Mutex
	docs []bson.M
}

func NewMemStore[T any]() *MemStore[T] {
	return &MemStore[T]{}
}

func normalize(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := bson.M{}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decode[T any](doc bson.M) (*T, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemStore[T]) index(id primitive.ObjectID) int {
	for i, d := range s.docs {
		if d["_id"] == id {
			return i
		}
	}
	return -1
}

func (s *MemStore[T]) Insert(ctx context.Context, doc *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := normalize(doc)
	if err != nil {
		return err
	}
	if id, ok := m["_id"].(primitive.ObjectID); ok && s.index(id) >= 0 {
		return database.ErrDuplicate
	}
	s.docs = append(s.docs, m)
	return nil
}

func (s *MemStore[T]) GetByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, database.ErrNotFound
	}
	return decode[T](s.docs[i])
}

func (s *MemStore[T]) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, database.ErrNotFound
	}
	norm, err := normalize(set)
	if err != nil {
		return nil, err
	}
	for k, v := range norm {
		s.docs[i][k] = v
	}
	return decode[T](s.docs[i])
}

func (s *MemStore[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return database.ErrNotFound
	}
	s.docs = append(s.docs[:i], s.docs[i+1:]...)
	return nil
}

func (s *MemStore[T]) matching(filter bson.M) ([]bson.M, error) {
	norm, err := normalize(filter)
	if err != nil {
		return nil, err
	}
	var out []bson.M
	for _, d := range s.docs {
		ok := true
		for k, v := range norm {
			if !reflect.DeepEqual(d[k], v) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemStore[T]) Find(ctx context.Context, q recordsRepo.Query) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.Filter == nil {
		q.Filter = bson.M{}
	}
	docs, err := s.matching(q.Filter)
	if err != nil {
		return nil, err
	}
	if q.Skip > 0 {
		if q.Skip >= int64(len(docs)) {
			docs = nil
		} else {
			docs = docs[q.Skip:]
		}
	}
	if q.Limit > 0 && int64(len(docs)) > q.Limit {
		docs = docs[:q.Limit]
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := decode[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *MemStore[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if filter == nil {
		filter = bson.M{}
	}
	docs, err := s.matching(filter)
	return int64(len(docs)), err
}

var _ recordsRepo.Store[struct{}] = (*MemStore[struct{}])(nil)
