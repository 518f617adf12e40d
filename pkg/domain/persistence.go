package domain

import "context"

// ResultStore persists observable entities against a star schema:
// deduplicated dimension rows for collision system, collaboration and
// observable name, one fact row per measurement.
//
// Save runs as a single transaction: either the full fact row with valid
// dimension references exists afterwards, or nothing does. Load and
// LoadAll reconstruct entities equal under value equality to the ones
// saved, to full floating-point precision.
type ResultStore interface {
	// Save resolves the entity's dimensions (inserting unseen natural keys)
	// and writes one fact row, returning its surrogate result id.
	Save(ctx context.Context, entity ObservableEntity) (int64, error)

	// LoadAll returns every stored measurement of the named observable in
	// insertion order, or a NotFoundError when there is none. Multiple
	// results indicate distinct publications sharing the short name.
	LoadAll(ctx context.Context, shortName string) ([]ObservableEntity, error)

	// Load disambiguates by the (system, collaboration, arXiv) natural
	// triple and returns exactly one measurement or a NotFoundError.
	Load(ctx context.Context, shortName, system, collaboration, arXiv string) (ObservableEntity, error)

	// Close releases the underlying storage handle.
	Close() error
}
