package winners

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/munchkineatter/DDrum/internal/models"
)

// csvHeader is the audit column order. The ID column is the player id the
// operator entered, not the internal winner id.
var csvHeader = []string{"Name", "ID", "Time", "Session", "Prize", "Status"}

// WriteCSV writes the winners to w in insertion order using the audit column
// layout.
func WriteCSV(w io.Writer, winners []models.Winner) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, winner := range winners {
		record := []string{
			winner.Name,
			winner.PlayerID,
			winner.CreatedAt.UTC().Format(time.RFC3339),
			winner.SessionID,
			winner.Prize,
			string(winner.Status),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV reads winners back from the audit layout, preserving order. It is
// the inverse of WriteCSV for the exported fields; internal winner ids are
// not round-tripped.
func ParseCSV(r io.Reader) ([]models.Winner, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) != len(csvHeader) {
		return nil, fmt.Errorf("unexpected csv header %v", header)
	}

	var out []models.Winner
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		createdAt, err := time.Parse(time.RFC3339, record[2])
		if err != nil {
			return nil, fmt.Errorf("parse csv time %q: %w", record[2], err)
		}
		out = append(out, models.Winner{
			Name:      record[0],
			PlayerID:  record[1],
			CreatedAt: createdAt,
			SessionID: record[3],
			Prize:     record[4],
			Status:    models.WinnerStatus(record[5]),
		})
	}
	return out, nil
}

// CSVFileExporter writes session snapshots to CSV files in a directory. It
// is the export collaborator the plans App calls when a session ends.
type CSVFileExporter struct {
	Dir string
}

// ExportSession writes one file per ended session, named by the session
// ordinal and id.
func (e *CSVFileExporter) ExportSession(ctx context.Context, session models.Session, list []models.Winner) error {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(e.Dir, fmt.Sprintf("session_%d_%s.csv", session.Number, session.ID))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, list); err != nil {
		return err
	}
	log.Info().Str("path", path).Int("winners", len(list)).Msg("session exported")
	return nil
}
