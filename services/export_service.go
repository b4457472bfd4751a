package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"bonus-hunt-service/models"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	SheetLeaderboard = "Leaderboard"
	SheetGuesses     = "Guesses"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ObjectUploader stores a finished export and returns its public URL.
type ObjectUploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

type ExportService struct {
	hunts    HuntStore
	guesses  GuessStore
	uploader ObjectUploader
	log      logrus.FieldLogger
}

// NewExportService builds the export service. uploader may be nil, which disables Archive.
func NewExportService(hunts HuntStore, guesses GuessStore, uploader ObjectUploader, log logrus.FieldLogger) *ExportService {
	return &ExportService{
		hunts:    hunts,
		guesses:  guesses,
		uploader: uploader,
		log:      log.WithField("component", "export"),
	}
}

// Workbook renders a hunt and its guesses as an xlsx file.
func (s *ExportService) Workbook(ctx context.Context, actor Actor, huntID int64) (*models.Hunt, []byte, error) {
	if !actor.IsAdmin() {
		return nil, nil, ErrForbidden
	}
	hunt, err := s.hunts.Hunt(ctx, huntID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil, ErrHuntNotFound
	}
	if err != nil {
		return nil, nil, &StorageError{Op: "load hunt", Err: err}
	}
	guesses, err := s.guesses.GuessesForHunt(ctx, huntID)
	if err != nil {
		return nil, nil, &StorageError{Op: "load guesses", Err: err}
	}

	buf, err := BuildWorkbook(hunt, guesses)
	if err != nil {
		return nil, nil, err
	}
	return hunt, buf.Bytes(), nil
}

// Archive uploads the hunt's workbook to object storage and returns its URL.
func (s *ExportService) Archive(ctx context.Context, actor Actor, huntID int64) (string, error) {
	if s.uploader == nil {
		return "", ErrArchiveDisabled
	}
	_, data, err := s.Workbook(ctx, actor, huntID)
	if err != nil {
		return "", err
	}

	key := ArchiveKey(huntID)
	url, err := s.uploader.Upload(ctx, key, xlsxContentType, data)
	if err != nil {
		s.log.WithError(err).WithField("hunt_id", huntID).Error("❌ [EXPORT] archive upload failed")
		return "", &StorageError{Op: "upload archive", Err: err}
	}
	s.log.WithFields(logrus.Fields{"hunt_id": huntID, "url": url}).Info("📦 [EXPORT] hunt archived")
	return url, nil
}

func ArchiveKey(huntID int64) string {
	return fmt.Sprintf("hunts/%d/hunt-%d.xlsx", huntID, huntID)
}

// BuildWorkbook writes a Guesses sheet in submission order and, when the ending
// balance is known, a Leaderboard sheet with every guess ranked.
func BuildWorkbook(hunt *models.Hunt, guesses []models.Guess) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetGuesses); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetGuesses, "A1", &[]interface{}{"Submitted", "User", "User ID", "Guess"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, g := range guesses {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{g.CreatedAt.UTC().Format("2006-01-02 15:04:05"), g.UserName, g.UserID, g.Value.InexactFloat64()}
		if err := f.SetSheetRow(SheetGuesses, cell, &row); err != nil {
			return nil, fmt.Errorf("write guess row: %w", err)
		}
	}

	if hunt.EndingKnown() {
		idx, err := f.NewSheet(SheetLeaderboard)
		if err != nil {
			return nil, fmt.Errorf("add leaderboard sheet: %w", err)
		}
		f.SetActiveSheet(idx)

		meta := []interface{}{"Hunt", hunt.HuntID, "Bonuses", hunt.BonusCount,
			"Start", hunt.StartingBalance.InexactFloat64(), "End", hunt.EndingBalance.Decimal.InexactFloat64()}
		if err := f.SetSheetRow(SheetLeaderboard, "A1", &meta); err != nil {
			return nil, fmt.Errorf("write hunt summary: %w", err)
		}
		if err := f.SetSheetRow(SheetLeaderboard, "A3", &[]interface{}{"Rank", "User", "Guess", "Diff"}); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		for i, r := range RankGuesses(hunt.EndingBalance.Decimal, guesses) {
			cell, _ := excelize.CoordinatesToCellName(1, i+4)
			row := []interface{}{r.Rank, r.UserName, r.Value.InexactFloat64(), r.Diff.InexactFloat64()}
			if err := f.SetSheetRow(SheetLeaderboard, cell, &row); err != nil {
				return nil, fmt.Errorf("write leaderboard row: %w", err)
			}
		}
	}

	return f.WriteToBuffer()
}
