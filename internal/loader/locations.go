// Package loader ingests the administrative hierarchy from operator-supplied
// files (CSV or XLSX with Name, Type, Parent columns; parents listed before
// their children).
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"va-core/internal/domain"
	"va-core/internal/repository"
	"va-core/internal/service"
)

// Row is one location line from the input file.
type Row struct {
	Name   string
	Type   string
	Parent string
}

// Options controls conflict handling; by default a path collision aborts the
// load, with SkipConflicts the row is skipped and counted.
type Options struct {
	SkipConflicts bool
}

// Result reports row counts from one load.
type Result struct {
	Created int
	Skipped int
}

type LocationLoader struct {
	locations *service.LocationService
	locRepo   repository.LocationsRepository
	logger    *zap.Logger
}

func NewLocationLoader(locations *service.LocationService, locRepo repository.LocationsRepository, logger *zap.Logger) *LocationLoader {
	return &LocationLoader{locations: locations, locRepo: locRepo, logger: logger}
}

// LoadCSV reads Name,Type,Parent rows from r and inserts missing nodes.
func (l *LocationLoader) LoadCSV(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		rows = append(rows, recordToRow(record))
	}
	return l.loadRows(ctx, rows, opts)
}

// LoadXLSX reads the first sheet of an Excel workbook in the same column
// layout.
func (l *LocationLoader) LoadXLSX(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	var rows []Row
	for _, record := range raw {
		rows = append(rows, recordToRow(record))
	}
	return l.loadRows(ctx, rows, opts)
}

func recordToRow(record []string) Row {
	row := Row{}
	if len(record) > 0 {
		row.Name = strings.TrimSpace(record[0])
	}
	if len(record) > 1 {
		row.Type = strings.ToLower(strings.TrimSpace(record[1]))
	}
	if len(record) > 2 {
		row.Parent = strings.TrimSpace(record[2])
	}
	return row
}

func isHeader(row Row) bool {
	return strings.EqualFold(row.Name, "name") && strings.EqualFold(row.Type, "type")
}

func (l *LocationLoader) loadRows(ctx context.Context, rows []Row, opts Options) (*Result, error) {
	// Index existing nodes by (parent path, name) so reruns are additive.
	existing, err := l.locRepo.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	byKey := map[string]*domain.Location{}
	byName := map[string]*domain.Location{}
	ambiguous := map[string]bool{}
	for _, loc := range existing {
		byKey[loc.ParentPath()+"|"+loc.Name] = loc
		if _, ok := byName[loc.Name]; ok {
			ambiguous[loc.Name] = true
		} else {
			byName[loc.Name] = loc
		}
	}

	res := &Result{}
	for i, row := range rows {
		if row.Name == "" || (i == 0 && isHeader(row)) {
			continue
		}
		if !domain.ValidLocationType(row.Type) {
			return nil, fmt.Errorf("row %d: invalid location type %q", i+1, row.Type)
		}

		var parent *domain.Location
		parentPath := ""
		if row.Parent != "" {
			parent = byName[row.Parent]
			if parent == nil {
				return nil, fmt.Errorf("row %d: parent %q not loaded before child %q", i+1, row.Parent, row.Name)
			}
			if ambiguous[row.Parent] {
				l.logger.Warn("parent name matches several nodes, attaching to the first occurrence",
					zap.Int("row", i+1),
					zap.String("parent", row.Parent),
					zap.String("parent_path", parent.Path),
					zap.String("child", row.Name))
			}
			parentPath = parent.Path
		}

		if _, ok := byKey[parentPath+"|"+row.Name]; ok {
			res.Skipped++
			continue
		}

		parentID := ""
		if parent != nil {
			parentID = parent.LocationID
		}
		loc, err := l.locations.AddChild(ctx, service.AddChildRequest{
			ParentID:     parentID,
			Name:         row.Name,
			LocationType: row.Type,
		})
		if errors.Is(err, domain.ErrStructuralConflict) && opts.SkipConflicts {
			l.logger.Warn("skipping conflicting location row",
				zap.Int("row", i+1), zap.String("name", row.Name))
			res.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i+1, row.Name, err)
		}

		byKey[parentPath+"|"+loc.Name] = loc
		if _, ok := byName[loc.Name]; ok {
			ambiguous[loc.Name] = true
		} else {
			byName[loc.Name] = loc
		}
		res.Created++
	}

	l.logger.Info("location load complete",
		zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
	return res, nil
}
