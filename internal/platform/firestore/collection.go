package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Collection is a typed view over one Firestore collection. T is encoded
// with firestore struct tags.
type Collection[T any] struct {
	provider *Provider
	name     string
}

func NewCollection[T any](provider *Provider, name string) *Collection[T] {
	return &Collection[T]{provider: provider, name: strings.TrimSpace(name)}
}

// Name returns the collection path.
func (c *Collection[T]) Name() string { return c.name }

// Ref returns the collection reference for custom queries and transactions.
func (c *Collection[T]) Ref(ctx context.Context) (*firestore.CollectionRef, error) {
	if c.provider == nil {
		return nil, errors.New("firestore: provider is nil")
	}
	client, err := c.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(c.name), nil
}

// Doc returns the reference of document id.
func (c *Collection[T]) Doc(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%s: document id is required", c.name)
	}
	ref, err := c.Ref(ctx)
	if err != nil {
		return nil, err
	}
	return ref.Doc(id), nil
}

// Get decodes document id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	doc, err := c.Doc(ctx, id)
	if err != nil {
		return out, err
	}
	var snap *firestore.DocumentSnapshot
	if st := txFrom(ctx); st != nil {
		snap, err = st.tx.Get(doc)
	} else {
		snap, err = doc.Get(ctx)
	}
	if err != nil {
		return out, WrapError(c.name+".get", err)
	}
	if err := snap.DataTo(&out); err != nil {
		return out, fmt.Errorf("%s.get: decode %s: %w", c.name, id, err)
	}
	return out, nil
}

// Create writes a new document and fails with a conflict if it exists.
// Inside a transaction the write is applied when the transaction commits.
func (c *Collection[T]) Create(ctx context.Context, id string, value T) error {
	doc, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	if st := txFrom(ctx); st != nil {
		st.queue(func(tx *firestore.Transaction) error {
			return WrapError(c.name+".create", tx.Create(doc, value))
		})
		return nil
	}
	_, err = doc.Create(ctx, value)
	return WrapError(c.name+".create", err)
}

// Set overwrites document id.
func (c *Collection[T]) Set(ctx context.Context, id string, value T) error {
	doc, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	if st := txFrom(ctx); st != nil {
		st.queue(func(tx *firestore.Transaction) error {
			return WrapError(c.name+".set", tx.Set(doc, value))
		})
		return nil
	}
	_, err = doc.Set(ctx, value)
	return WrapError(c.name+".set", err)
}

// Delete removes document id. Deleting a missing document is not an error.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	doc, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	if st := txFrom(ctx); st != nil {
		st.queue(func(tx *firestore.Transaction) error {
			return WrapError(c.name+".delete", tx.Delete(doc))
		})
		return nil
	}
	_, err = doc.Delete(ctx)
	return WrapError(c.name+".delete", err)
}

// Query runs build over the collection and decodes every result.
func (c *Collection[T]) Query(ctx context.Context, build func(firestore.Query) firestore.Query) ([]T, error) {
	ref, err := c.Ref(ctx)
	if err != nil {
		return nil, err
	}
	q := ref.Query
	if build != nil {
		q = build(q)
	}
	var iter *firestore.DocumentIterator
	if st := txFrom(ctx); st != nil {
		iter = st.tx.Documents(q)
	} else {
		iter = q.Documents(ctx)
	}
	defer iter.Stop()

	var out []T
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, WrapError(c.name+".query", err)
		}
		var item T
		if err := snap.DataTo(&item); err != nil {
			return nil, fmt.Errorf("%s.query: decode %s: %w", c.name, snap.Ref.ID, err)
		}
		out = append(out, item)
	}
}
