package winners

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/munchkineatter/DDrum/internal/models"
)

func TestCSVRoundTrip(t *testing.T) {
	created := time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)
	in := []models.Winner{
		{
			ID:        "internal-1",
			Name:      "Pat Doyle",
			PlayerID:  "P-1042",
			Prize:     "Free Play $100",
			SessionID: "session-1",
			CreatedAt: created,
			Status:    models.WinnerStatusActive,
		},
		{
			ID:        "internal-2",
			Name:      "Sam, with a comma",
			SessionID: "session-1",
			CreatedAt: created.Add(time.Minute),
			Status:    models.WinnerStatusDisqualified,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))

	out, err := ParseCSV(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for i := range in {
		require.Equal(t, in[i].Name, out[i].Name)
		require.Equal(t, in[i].PlayerID, out[i].PlayerID)
		require.Equal(t, in[i].Prize, out[i].Prize)
		require.Equal(t, in[i].SessionID, out[i].SessionID)
		require.Equal(t, in[i].Status, out[i].Status)
		require.True(t, in[i].CreatedAt.Equal(out[i].CreatedAt))
	}
	// Internal ids stay internal.
	require.Empty(t, out[0].ID)
}

func TestWriteCSVHeaderAndColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []models.Winner{{
		Name:      "Pat",
		PlayerID:  "P-1",
		SessionID: "s-1",
		Status:    models.WinnerStatusClaimed,
	}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "Name,ID,Time,Session,Prize,Status", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "Pat,P-1,"))
	require.True(t, strings.HasSuffix(lines[1], ",Claimed"))
}

func TestParseCSVRejectsBadHeader(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Name,ID\n"))
	require.Error(t, err)
}

func TestCSVFileExporterWritesSessionFile(t *testing.T) {
	dir := t.TempDir()
	exporter := &CSVFileExporter{Dir: dir}

	session := models.Session{ID: "abc", Number: 3}
	err := exporter.ExportSession(context.Background(), session, []models.Winner{{
		Name:      "Pat",
		SessionID: "abc",
		Status:    models.WinnerStatusActive,
	}})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "session_3_abc.csv"))
	require.NoError(t, err)

	parsed, err := ParseCSV(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	require.Equal(t, "Pat", parsed[0].Name)
}
