// Package storage persists the finance document and neighbouring namespaces.
//
// Every namespace is a single JSON body replaced as a whole on each save.
// A revision counter per namespace rejects writes based on a stale read.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

// NamespaceStore is a whole-body key-value store with optimistic revisions.
type NamespaceStore interface {
	// LoadNamespace returns the stored body and its revision. A namespace
	// never written returns a nil body and revision 0.
	LoadNamespace(ctx context.Context, namespace string) (body []byte, revision int64, err error)

	// SaveNamespace replaces the body if the stored revision equals revision
	// and returns the new revision. A mismatch returns core.ErrConflict.
	SaveNamespace(ctx context.Context, namespace string, body []byte, revision int64) (int64, error)
}

// DocumentStore reads and writes the finance document.
type DocumentStore interface {
	Load(ctx context.Context) (*core.Document, error)
	Save(ctx context.Context, doc *core.Document) error
}

// LedgerStore adapts a NamespaceStore to the finance document.
type LedgerStore struct {
	store NamespaceStore
}

func NewLedgerStore(store NamespaceStore) *LedgerStore {
	return &LedgerStore{store: store}
}

// Load returns the finance document, or a fresh one seeded with default
// categories and settings on first use.
func (l *LedgerStore) Load(ctx context.Context) (*core.Document, error) {
	body, revision, err := l.store.LoadNamespace(ctx, core.Namespace)
	if err != nil {
		return nil, fmt.Errorf("load %s document: %w", core.Namespace, err)
	}

	if body == nil {
		slog.DebugContext(ctx, "Initializing new finance document")
		return core.NewDocument(), nil
	}

	var doc core.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", core.Namespace, err)
	}
	doc.Normalize()
	doc.Revision = revision

	return &doc, nil
}

// Save persists the whole document and advances doc.Revision.
func (l *LedgerStore) Save(ctx context.Context, doc *core.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", core.Namespace, err)
	}

	revision, err := l.store.SaveNamespace(ctx, core.Namespace, body, doc.Revision)
	if err != nil {
		return fmt.Errorf("save %s document: %w", core.Namespace, err)
	}
	doc.Revision = revision

	slog.DebugContext(ctx, "Finance document saved",
		"revision", revision,
		"transactions", len(doc.Transactions),
		"bytes", len(body))

	return nil
}
