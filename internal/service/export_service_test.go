package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/storage"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	repo := newTimetableRepoStub()
	record, lessons := savedTimetable(t, models.TimetableStatusPublished)
	repo.records[record.ID] = record
	repo.lessons[record.ID] = lessons

	names := catalogRepoStub{
		subjects: []models.Subject{{ID: "math", Name: "Mathematics"}},
		classes:  []models.Class{{ID: "10A", Name: "X IPA 1"}},
		teachers: []models.Teacher{{ID: "t-math", FullName: "Budi Santoso", Active: true}},
		rooms:    []models.Room{{ID: "r-101", Name: "Room 101"}},
	}
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(repo, names, store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), nil, nil)
	return svc, store
}

func TestExportServiceClassCSV(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	resp, err := svc.Export(context.Background(), "tt-1", dto.ExportTimetableRequest{Format: models.ExportFormatCSV, ClassID: "10A"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.URL, "/api/v1/timetables/exports/"))
	assert.True(t, strings.HasPrefix(resp.Filename, "timetable_v1_X_IPA_1_"))
	assert.True(t, strings.HasSuffix(resp.Filename, ".csv"))

	token := strings.TrimPrefix(resp.URL, "/api/v1/timetables/exports/")
	download, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)
	assert.Equal(t, resp.Filename, download.Filename)

	payload, err := io.ReadAll(download.File)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(payload))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Session", "MONDAY"},
		{"08:00-09:00", "Mathematics\nBudi Santoso"},
		{"09:00-10:00", "Mathematics\nBudi Santoso\nRoom 101"},
	}, records)
}

func TestExportServiceTeacherPDF(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	resp, err := svc.Export(context.Background(), "tt-1", dto.ExportTimetableRequest{Format: models.ExportFormatPDF, TeacherID: "t-math"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp.Filename, ".pdf"))

	download, err := svc.Resolve(context.Background(), strings.TrimPrefix(resp.URL, "/api/v1/timetables/exports/"))
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "application/pdf", download.ContentType)
	head := make([]byte, 4)
	_, err = io.ReadFull(download.File, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))
}

func TestExportServiceErrors(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Export(ctx, "tt-1", dto.ExportTimetableRequest{Format: models.ExportFormatCSV})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Export(ctx, "tt-1", dto.ExportTimetableRequest{Format: models.ExportFormatCSV, ClassID: "10A", TeacherID: "t-math"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Export(ctx, "tt-1", dto.ExportTimetableRequest{Format: "xlsx", ClassID: "10A"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Export(ctx, "missing", dto.ExportTimetableRequest{Format: models.ExportFormatCSV, ClassID: "10A"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Export(ctx, "tt-1", dto.ExportTimetableRequest{Format: models.ExportFormatCSV, ClassID: "12Z"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Resolve(ctx, "not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExportServiceCleanup(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	_, err := store.Save("old.csv", []byte("a,b\n"))
	require.NoError(t, err)

	svc.cfg.ResultTTL = time.Nanosecond
	time.Sleep(5 * time.Millisecond)
	removed, err := svc.Cleanup()
	require.NoError(t, err)
	assert.Contains(t, removed, "old.csv")
}
