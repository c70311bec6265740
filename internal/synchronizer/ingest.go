package synchronizer

import (
	"context"
	"fmt"
	"path/filepath"

	"docman/internal/codec"
)

// Source is one user-selected input: an image or a multi-page document.
type Source struct {
	Name string
	Data []byte
}

// IngestFault records a source, or one page of it, replaced by the placeholder.
type IngestFault struct {
	Source string `json:"source"`
	Page   int    `json:"page,omitempty"`
	Err    error  `json:"-"`
}

func (f IngestFault) Error() string {
	if f.Page > 0 {
		return fmt.Sprintf("%s page %d: %v", f.Source, f.Page, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Source, f.Err)
}

func (f IngestFault) Unwrap() error { return f.Err }

// Ingested is the merged page sequence of one ingestion.
type Ingested struct {
	Pages  [][]byte
	Faults []IngestFault
}

// Ingest merges sources into one page sequence in selection order. A
// multi-page document contributes its pages contiguously in document order;
// an image contributes one page. Undecodable input becomes a placeholder page.
func (s *Synchronizer) Ingest(ctx context.Context, sources []Source) (Ingested, error) {
	var out Ingested
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return Ingested{}, err
		}

		format := s.codec.DetectFormat(src.Data)
		if format.IsMultiPage() {
			pages, err := s.codec.Rasterize(ctx, src.Data)
			if err != nil {
				if ctx.Err() != nil {
					return Ingested{}, ctx.Err()
				}
				out.fault(s, IngestFault{Source: src.Name, Err: err})
				continue
			}
			for i, page := range pages {
				normalized, err := s.codec.NormalizeToStorageFormat(page)
				if err != nil {
					out.fault(s, IngestFault{Source: src.Name, Page: i + 1, Err: err})
					continue
				}
				out.Pages = append(out.Pages, normalized)
			}
			s.logger.Debug("expanded document", "source", src.Name, "pages", len(pages))
			continue
		}

		normalized, err := s.codec.NormalizeToStorageFormat(src.Data)
		if err != nil {
			out.fault(s, IngestFault{Source: src.Name, Err: err})
			continue
		}
		out.Pages = append(out.Pages, normalized)
	}
	return out, nil
}

func (in *Ingested) fault(s *Synchronizer, f IngestFault) {
	s.logger.Warn("source could not be decoded, using placeholder", "source", f.Source, "page", f.Page, "err", f.Err)
	in.Pages = append(in.Pages, codec.Placeholder())
	in.Faults = append(in.Faults, f)
}

// IngestFiles reads paths in order and ingests them. Read failures are fatal.
func (s *Synchronizer) IngestFiles(ctx context.Context, paths []string) (Ingested, error) {
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		data, err := s.files.ReadFile(ctx, path)
		if err != nil {
			return Ingested{}, err
		}
		sources = append(sources, Source{Name: filepath.Base(path), Data: data})
	}
	return s.Ingest(ctx, sources)
}
