// Package manifest records batch outcomes as a corpus index.
//
// Every plan item becomes one [Entry]: which run produced it, its stem and
// coordinates, the files written and any error. Stores:
//
//   - jsonl: one JSON object per line, appended as items finish
//   - xlsx: a spreadsheet written when the store is closed
//   - mongo: one document per item in a MongoDB collection
//   - none: discard
package manifest

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/chartsnap/pkg/batch"
	"github.com/matzehuels/chartsnap/pkg/errors"
)

// Backend names.
const (
	BackendJSONL = "jsonl"
	BackendXLSX  = "xlsx"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// DefaultCollection is the MongoDB collection used when none is configured.
const DefaultCollection = "exports"

// Entry is one recorded item.
type Entry struct {
	ID       string            `json:"id" bson:"_id"`
	RunID    string            `json:"run_id" bson:"run_id"`
	Index    int               `json:"index" bson:"index"`
	Stem     string            `json:"stem" bson:"stem"`
	Coords   map[string]string `json:"coords" bson:"coords"`
	Status   batch.Status      `json:"status" bson:"status"`
	Files    []string          `json:"files,omitempty" bson:"files,omitempty"`
	Error    string            `json:"error,omitempty" bson:"error,omitempty"`
	Duration int64             `json:"duration_ms" bson:"duration_ms"`
	Time     time.Time         `json:"time" bson:"time"`
}

// FromOutcome converts a batch outcome.
func FromOutcome(o batch.Outcome) Entry {
	e := Entry{
		ID:       uuid.NewString(),
		RunID:    o.RunID,
		Index:    o.Item.Index,
		Stem:     o.Item.Stem,
		Coords:   o.Item.Coordinates(),
		Status:   o.Status,
		Files:    o.Files,
		Duration: o.Duration.Milliseconds(),
		Time:     o.Time.UTC(),
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}
	return e
}

// Store records outcomes. It satisfies [batch.Recorder].
type Store interface {
	batch.Recorder
	Close() error
}

// Config selects and configures a store.
type Config struct {
	Backend         string `toml:"backend"`
	Path            string `toml:"path"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Open creates the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendNone:
		return Discard{}, nil
	case BackendJSONL:
		s, err := NewJSONLStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendXLSX:
		s, err := NewXLSXStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMongo:
		s, err := NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown manifest backend %q (must be one of: jsonl, xlsx, mongo, none)", cfg.Backend)
	}
}

// Discard drops every outcome.
type Discard struct{}

func (Discard) Record(context.Context, batch.Outcome) error { return nil }
func (Discard) Close() error                                { return nil }
