package service

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vaiolabs/vaio-board/config"
	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/database/model"
	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/util/common"
)

// maxLogLines bounds how much of a log file a single read returns.
const maxLogLines = 1000

// LogService lists and reads service log files and maintains the indexed
// error table.
type LogService struct{}

// ListLogFiles returns the plain .log files in the log folder, excluding
// error sidecar files (.err.log).
func (s *LogService) ListLogFiles() ([]string, error) {
	entries, err := os.ReadDir(config.GetLogFolder())
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".log") || strings.HasSuffix(name, ".err.log") {
			continue
		}
		files = append(files, name)
	}
	return files, nil
}

// resolveLogPath rejects path traversal and confines reads to the log folder.
func (s *LogService) resolveLogPath(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", common.NewErrorf("invalid log filename: %s", filename)
	}
	return filepath.Join(config.GetLogFolder(), filename), nil
}

// ReadLogFile returns up to the last maxLogLines lines of a log file.
func (s *LogService) ReadLogFile(filename string) ([]string, error) {
	return s.TailLogFile(filename, maxLogLines)
}

// TailLogFile returns the last n lines of a log file.
func (s *LogService) TailLogFile(filename string, n int) ([]string, error) {
	path, err := s.resolveLogPath(filename)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > maxLogLines {
		n = maxLogLines
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	lines := make([]string, 0, n)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// GetErrors returns indexed service errors, newest first, optionally filtered
// by service name.
func (s *LogService) GetErrors(serviceName string, limit int) ([]*model.ServiceError, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	db := database.GetDB()
	query := db.Model(model.ServiceError{}).Order("timestamp desc, id desc").Limit(limit)
	if serviceName != "" {
		query = query.Where("service = ?", serviceName)
	}

	var errs []*model.ServiceError
	if err := query.Find(&errs).Error; err != nil {
		return nil, err
	}
	return errs, nil
}

// IndexErrors scans a log file for ERROR lines and appends new ServiceError
// rows beyond the last indexed line number. Returns how many were added.
func (s *LogService) IndexErrors(serviceName, filename string) (int, error) {
	lastLine, err := s.lastIndexedLine(serviceName, filename)
	if err != nil {
		return 0, err
	}

	path, err := s.resolveLogPath(filename)
	if err != nil {
		return 0, err
	}
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	db := database.GetDB()
	added := 0
	lineNo := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		if lineNo <= lastLine {
			continue
		}
		line := scanner.Text()
		if !strings.Contains(line, "ERROR") {
			continue
		}
		entry := &model.ServiceError{
			Service:    serviceName,
			Message:    line,
			Timestamp:  time.Now(),
			LogFile:    filename,
			LineNumber: lineNo,
		}
		if err := db.Create(entry).Error; err != nil {
			logger.Warning("indexing service error failed:", err)
			continue
		}
		added++
	}
	if err := scanner.Err(); err != nil {
		return added, err
	}
	return added, nil
}

func (s *LogService) lastIndexedLine(serviceName, filename string) (int, error) {
	db := database.GetDB()

	entry := &model.ServiceError{}
	err := db.Model(model.ServiceError{}).
		Where("service = ? and log_file = ?", serviceName, filename).
		Order("line_number desc").
		First(entry).
		Error
	if database.IsNotFound(err) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return entry.LineNumber, nil
}
