package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dip-screener/internal/model"
)

var (
	// ErrNoReports indicates the output directory holds no opportunities file.
	ErrNoReports = errors.New("storage: no reports found")
	// ErrEmptyReport indicates an attempt to persist a report without opportunities.
	ErrEmptyReport = errors.New("storage: report has no opportunities")
)

const (
	filePrefix = "opportunities_"
	fileSuffix = ".csv"
)

// ReportStore persists opportunity reports.
type ReportStore interface {
	Save(report *model.OpportunityReport) (string, error)
}

// FileStore keeps one CSV file per run date under a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "data"
	}
	return &FileStore{dir: dir}
}

// Dir returns the output directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file path for a run date (YYYY-MM-DD).
func (s *FileStore) Path(date string) string {
	return filepath.Join(s.dir, filePrefix+date+fileSuffix)
}

// Save writes the report's opportunities to its dated file, replacing any
// earlier file of the same date.
func (s *FileStore) Save(report *model.OpportunityReport) (string, error) {
	if report.Empty() {
		return "", ErrEmptyReport
	}
	if _, err := time.Parse(model.DateLayout, report.Date); err != nil {
		return "", fmt.Errorf("invalid report date %q: %w", report.Date, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := s.Path(report.Date)
	tmp := path + ".tmp"
	if err := writeCSV(tmp, report.Opportunities); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalize report: %w", err)
	}
	return path, nil
}

func writeCSV(path string, results []model.AnalysisResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, r := range results {
		if err := writer.Write(encodeRecord(r)); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Sync()
}

// Load reads the opportunities recorded for date.
func (s *FileStore) Load(date string) ([]model.AnalysisResult, error) {
	file, err := os.Open(s.Path(date))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", date, ErrNoReports)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	results := make([]model.AnalysisResult, 0, len(records)-1)
	for i, record := range records[1:] {
		res, err := decodeRecord(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", date, i+2, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Dates lists the run dates with a stored report, oldest first.
func (s *FileStore) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		date := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if _, err := time.Parse(model.DateLayout, date); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

// Latest returns the most recent report date.
func (s *FileStore) Latest() (string, error) {
	dates, err := s.Dates()
	if err != nil {
		return "", err
	}
	if len(dates) == 0 {
		return "", ErrNoReports
	}
	return dates[len(dates)-1], nil
}

var _ ReportStore = (*FileStore)(nil)
