package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"bonus-hunt-service/models"

	"github.com/shopspring/decimal"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeUploader struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, body []byte) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.key, u.contentType, u.body = key, contentType, body
	return "https://cdn.example/" + key, nil
}

func seedExportHunt(t *testing.T, store *FakeStore, ending decimal.NullDecimal) {
	t.Helper()
	store.PutHunt(models.Hunt{HuntID: 3, BonusCount: 4, StartingBalance: decimal.NewFromInt(500), EndingBalance: ending})
	for _, g := range []models.Guess{guess("A", "900"), guess("B", "1100"), guess("C", "1000")} {
		g.HuntID = 3
		require.NoError(t, store.InsertGuess(context.Background(), &g))
	}
}

func TestBuildWorkbook_WithLeaderboard(t *testing.T) {
	store := NewFakeStore()
	seedExportHunt(t, store, decimal.NewNullDecimal(decimal.NewFromInt(1000)))
	hunt, _ := store.StoredHunt(3)

	buf, err := BuildWorkbook(&hunt, store.StoredGuesses())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{SheetGuesses, SheetLeaderboard}, f.GetSheetList())

	rows, err := f.GetRows(SheetGuesses)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Submitted", "User", "User ID", "Guess"}, rows[0])
	assert.Equal(t, "A", rows[1][1])
	assert.Equal(t, "900", rows[1][3])

	board, err := f.GetRows(SheetLeaderboard)
	require.NoError(t, err)
	require.Len(t, board, 6) // summary, blank, header, three entries
	assert.Equal(t, "Hunt", board[0][0])
	assert.Equal(t, []string{"1", "C", "1000", "0"}, board[3])
	assert.Equal(t, []string{"2", "A", "900", "100"}, board[4])
	assert.Equal(t, []string{"3", "B", "1100", "100"}, board[5])
}

func TestBuildWorkbook_PendingHuntHasNoLeaderboard(t *testing.T) {
	store := NewFakeStore()
	seedExportHunt(t, store, decimal.NullDecimal{})
	hunt, _ := store.StoredHunt(3)

	buf, err := BuildWorkbook(&hunt, store.StoredGuesses())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetGuesses}, f.GetSheetList())
}

func TestExportService_Archive(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	store := NewFakeStore()
	seedExportHunt(t, store, decimal.NewNullDecimal(decimal.NewFromInt(1000)))
	ctx := context.Background()

	disabled := NewExportService(store, store, nil, logger)
	_, err := disabled.Archive(ctx, admin, 3)
	assert.ErrorIs(t, err, ErrArchiveDisabled)

	up := &fakeUploader{}
	svc := NewExportService(store, store, up, logger)

	_, err = svc.Archive(ctx, player, 3)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Archive(ctx, admin, 99)
	assert.ErrorIs(t, err, ErrHuntNotFound)

	url, err := svc.Archive(ctx, admin, 3)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/hunts/3/hunt-3.xlsx", url)
	assert.Equal(t, xlsxContentType, up.contentType)
	assert.NotEmpty(t, up.body)

	up.err = errors.New("bucket gone")
	_, err = svc.Archive(ctx, admin, 3)
	var serr *StorageError
	assert.ErrorAs(t, err, &serr)
}
