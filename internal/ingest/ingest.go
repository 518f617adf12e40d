package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"hicdata/internal/blob"
	"hicdata/internal/core"
	"hicdata/internal/infra/persistence/record"
	"hicdata/pkg/domain"
)

// ParamsFunc supplies the kind-specific parameters for an observable being
// ingested. Data files carry only the measured series, so acceptance cuts
// must come from the ingestion configuration.
type ParamsFunc func(shortName string, info KindInfo) domain.Params

// DefaultParams returns the conventional minimum-bias acceptance used by the
// bundled data sets: charged particles, |eta| < 0.5, 0.2 < pT < 5.0 GeV.
func DefaultParams(_ string, info KindInfo) domain.Params {
	p := domain.Params{
		RapidityRange: &domain.Range{-0.5, 0.5},
		PTRange:       &domain.Range{0.2, 5.0},
	}
	if info.Harmonic > 0 {
		p.HarmonicN = info.Harmonic
	} else {
		p.ParticleType = "charged"
	}
	return p
}

// Ingestor turns data files into stored catalogue entries. It is safe for a
// single goroutine; batch runs walk directories sequentially.
type Ingestor struct {
	svc    *core.Service
	blobs  blob.Store
	reg    *domain.Registry
	log    core.Logger
	params ParamsFunc
}

// IngestOption configures an Ingestor.
type IngestOption func(*Ingestor)

// WithParams overrides the default acceptance parameters.
func WithParams(fn ParamsFunc) IngestOption {
	return func(in *Ingestor) {
		if fn != nil {
			in.params = fn
		}
	}
}

// WithIngestLogger attaches a structured logger.
func WithIngestLogger(l core.Logger) IngestOption {
	return func(in *Ingestor) {
		if l != nil {
			in.log = l
		}
	}
}

// New constructs an Ingestor. blobs may be nil to skip provenance
// attachments.
func New(svc *core.Service, blobs blob.Store, reg *domain.Registry, opts ...IngestOption) *Ingestor {
	in := &Ingestor{svc: svc, blobs: blobs, reg: reg, log: core.NopLogger(), params: DefaultParams}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Summary reports the outcome of a batch ingestion.
type Summary struct {
	Ingested int
	Skipped  int
}

// File ingests one data file for the given system and collaboration. The
// observable short name is the file base name without extensions. Returns
// the new result id.
func (in *Ingestor) File(ctx context.Context, path, system, collaboration string) (int64, error) {
	shortName := observableName(path)
	info, err := KindForObservable(shortName)
	if err != nil {
		return 0, err
	}

	rc, err := openData(path)
	if err != nil {
		return 0, err
	}
	raw, err := io.ReadAll(rc)
	if cerr := rc.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}

	var table DatTable
	if strings.HasPrefix(observableExt(path), ".csv") {
		table, err = ParseCSV(bytes.NewReader(raw))
	} else {
		table, err = ParseDat(bytes.NewReader(raw))
	}
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	entity, err := in.entityFrom(shortName, info, system, collaboration, table)
	if err != nil {
		return 0, err
	}
	id, err := in.svc.SaveResult(ctx, entity)
	if err != nil {
		return 0, err
	}
	if in.blobs != nil {
		// raw holds the decompressed bytes, so the attachment drops the
		// compression suffix.
		key := blob.AttachmentKey(id, strings.TrimSuffix(filepath.Base(path), ".gz"))
		meta := map[string]string{"system": system, "collaboration": collaboration}
		if _, err := in.blobs.Put(ctx, key, bytes.NewReader(raw), blob.PutOptions{
			ContentType: "text/plain",
			Metadata:    meta,
		}); err != nil {
			in.log.Warn("attach source failed", "key", key, "err", err)
		}
	}
	return id, nil
}

// Directory walks root expecting the layout
// <system>/<collaboration>/<observable>.dat and ingests every data file.
// Files with unrecognized observable names and results already stored are
// skipped, not fatal.
func (in *Ingestor) Directory(ctx context.Context, root string) (Summary, error) {
	var sum Summary
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isDataFile(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			in.log.Warn("unexpected layout, skipping", "path", rel)
			sum.Skipped++
			return nil
		}
		if _, err := KindForObservable(observableName(path)); err != nil {
			sum.Skipped++
			in.log.Warn("unrecognized observable, skipping", "path", rel, "err", err)
			return nil
		}
		system, collaboration := parts[0], parts[1]
		id, err := in.File(ctx, path, system, collaboration)
		switch {
		case err == nil:
			sum.Ingested++
			in.log.Info("ingested", "path", rel, "result_id", id)
		case errors.Is(err, record.ErrDuplicateResult):
			sum.Skipped++
			in.log.Info("already stored, skipping", "path", rel)
		default:
			return fmt.Errorf("%s: %w", rel, err)
		}
		return nil
	})
	return sum, err
}

func (in *Ingestor) entityFrom(shortName string, info KindInfo, system, collaboration string, table DatTable) (domain.ObservableEntity, error) {
	bins := make([]domain.Bin, len(table.Rows))
	values := make([]float64, len(table.Rows))
	errs := make([]float64, len(table.Rows))
	for i, row := range table.Rows {
		bins[i] = domain.Bin{row.CentLow, row.CentHigh}
		values[i] = row.Value
		errs[i] = row.Error
	}
	common := domain.Common{
		Name:           info.DisplayName,
		ShortName:      shortName,
		System:         system,
		Collaboration:  collaboration,
		Reference:      domain.Reference{ArXiv: table.Reference},
		CentralityBins: bins,
		Values:         values,
		Errors:         errs,
	}
	return domain.Construct(in.reg, info.Kind, common, in.params(shortName, info))
}

func isDataFile(path string) bool {
	ext := observableExt(path)
	return ext == ".dat" || ext == ".dat.gz" || ext == ".csv" || ext == ".csv.gz"
}

// observableExt returns the data extension, treating ".gz" as a wrapper:
// "v22.dat.gz" yields ".dat.gz".
func observableExt(path string) string {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	if ext == ".gz" {
		return filepath.Ext(strings.TrimSuffix(name, ext)) + ext
	}
	return ext
}

// observableName strips data extensions from the file base name.
func observableName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return name
}
