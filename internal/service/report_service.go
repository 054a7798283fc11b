package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/webcapz/campus-portal-api/internal/models"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
	"github.com/webcapz/campus-portal-api/pkg/export"
)

type reportAttendanceReader interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.GeneralAttendanceRecord, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type tableRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportService renders attendance reports for download.
type ReportService struct {
	attendance reportAttendanceReader
	csv        csvRenderer
	pdf        tableRenderer
	logger     *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(attendance reportAttendanceReader, csv csvRenderer, pdf tableRenderer, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{attendance: attendance, csv: csv, pdf: pdf, logger: logger}
}

// GeneralAttendanceCSV renders one day of check-in events as CSV.
func (s *ReportService) GeneralAttendanceCSV(ctx context.Context, date time.Time) ([]byte, string, error) {
	data, err := s.generalAttendanceDataset(ctx, date)
	if err != nil {
		return nil, "", err
	}

	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
	}
	return payload, fmt.Sprintf("general-attendance-%s.csv", date.Format("2006-01-02")), nil
}

// GeneralAttendancePDF renders one day of check-in events as a PDF table.
func (s *ReportService) GeneralAttendancePDF(ctx context.Context, date time.Time) ([]byte, string, error) {
	data, err := s.generalAttendanceDataset(ctx, date)
	if err != nil {
		return nil, "", err
	}

	title := fmt.Sprintf("General Attendance %s", date.Format("2006-01-02"))
	payload, err := s.pdf.Render(data, title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
	}
	return payload, fmt.Sprintf("general-attendance-%s.pdf", date.Format("2006-01-02")), nil
}

func (s *ReportService) generalAttendanceDataset(ctx context.Context, date time.Time) (export.Dataset, error) {
	records, err := s.attendance.ListByDate(ctx, dateOnly(date))
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}

	data := export.Dataset{
		Headers: []string{"Name", "Type", "Code", "Date", "Check In", "Check Out"},
		Rows:    make([]map[string]string, 0, len(records)),
	}
	for _, record := range records {
		checkOut := ""
		if record.CheckOutTime != nil {
			checkOut = record.CheckOutTime.Format("15:04")
		}
		data.Rows = append(data.Rows, map[string]string{
			"Name":      record.UserName,
			"Type":      string(record.UserType),
			"Code":      record.CodeName,
			"Date":      record.AttendanceDate.Format("2006-01-02"),
			"Check In":  record.CheckInTime.Format("15:04"),
			"Check Out": checkOut,
		})
	}
	return data, nil
}
