package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"studiobook/internal/domain"
	"studiobook/internal/timeslot"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter выгружает бронирования за период в Excel файл.
type Exporter struct {
	repo     domain.Repository
	identity domain.Identity
	path     string
	logger   zerolog.Logger
}

func NewExporter(repo domain.Repository, identity domain.Identity, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		repo:     repo,
		identity: identity,
		path:     path,
		logger:   logger.With().Str("component", "exporter").Logger(),
	}
}

// Export создает Excel файл с бронированиями за период и возвращает путь к нему.
func (e *Exporter) Export(ctx context.Context, startDate, endDate time.Time) (string, error) {
	// Создаем папку для экспорта, если не существует
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	bookings, err := e.repo.GetBookingsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Бронирования"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	// Заголовок периода
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	headers := []string{"Дата", "Начало", "Конец", "Клиент", "Email", "Статус", "Комментарий"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 2)
	_ = f.SetCellStyle(sheetName, "A2", lastHeader, headerStyle)

	for i, booking := range bookings {
		row := i + 3
		name, email := booking.UserID, ""
		if summary := e.identity.Summary(booking.UserID); summary != nil {
			name, email = summary.Name, summary.Email
		}
		values := []any{
			booking.Date.Format("02.01.2006"),
			displayTime(booking.StartTime),
			displayTime(booking.EndTime),
			name,
			email,
			booking.Status,
			booking.Notes,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "C", 12)
	_ = f.SetColWidth(sheetName, "D", "E", 25)
	_ = f.SetColWidth(sheetName, "F", "G", 18)

	lastCol, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.MergeCell(sheetName, "A1", lastCol)
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("export_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}

// displayTime показывает устаревшие значения так же, как канонические.
func displayTime(raw string) string {
	if v := timeslot.Parse(raw); v.Kind() != timeslot.KindUnknown {
		return v.Canonical()
	}
	return raw
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !principal.IsAdmin {
		writeError(w, http.StatusForbidden, "only admins can export bookings")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	now := time.Now()
	startDate := now.AddDate(0, -1, 0)
	endDate := now.AddDate(0, 2, 0)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := timeslot.NormalizeDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
			return
		}
		startDate = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := timeslot.NormalizeDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
			return
		}
		endDate = parsed
	}
	if endDate.Before(startDate) {
		writeError(w, http.StatusBadRequest, "export range is inverted")
		return
	}

	filePath, err := s.exporter.Export(r.Context(), startDate, endDate)
	if err != nil {
		s.log.Error().Err(err).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(filePath)))
	http.ServeFile(w, r, filePath)
}
