package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeLog(t *testing.T, dir, name, content string) {
	t.Helper()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestListLogFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VAIO_LOG_FOLDER", dir)

	writeLog(t, dir, "ollama.log", "line\n")
	writeLog(t, dir, "ollama.err.log", "err\n")
	writeLog(t, dir, "notes.txt", "text\n")

	service := LogService{}
	files, err := service.ListLogFiles()
	assert.NoError(t, err)
	assert.Equal(t, []string{"ollama.log"}, files)
}

func TestTailLogFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VAIO_LOG_FOLDER", dir)

	writeLog(t, dir, "ollama.log", "one\ntwo\nthree\nfour\n")

	service := LogService{}
	lines, err := service.TailLogFile("ollama.log", 2)
	assert.NoError(t, err)
	assert.Equal(t, []string{"three", "four"}, lines)

	// traversal is rejected
	_, err = service.TailLogFile("../etc/passwd", 2)
	assert.Error(t, err)

	// missing file surfaces as a not-exist error
	_, err = service.TailLogFile("ghost.log", 2)
	assert.True(t, os.IsNotExist(err))
}

func TestIndexErrors(t *testing.T) {
	setup()
	defer teardown()

	dir := t.TempDir()
	t.Setenv("VAIO_LOG_FOLDER", dir)

	writeLog(t, dir, "ollama.log", "INFO fine\nERROR boom\nINFO still fine\n")

	service := LogService{}
	added, err := service.IndexErrors("ollama", "ollama.log")
	assert.NoError(t, err)
	assert.Equal(t, 1, added)

	// re-index picks up nothing new
	added, err = service.IndexErrors("ollama", "ollama.log")
	assert.NoError(t, err)
	assert.Equal(t, 0, added)

	// appended error gets picked up
	writeLog(t, dir, "ollama.log", "INFO fine\nERROR boom\nINFO still fine\nERROR again\n")
	added, err = service.IndexErrors("ollama", "ollama.log")
	assert.NoError(t, err)
	assert.Equal(t, 1, added)

	errs, err := service.GetErrors("ollama", 10)
	assert.NoError(t, err)
	assert.Len(t, errs, 2)
	assert.Equal(t, "ERROR again", errs[0].Message)
}
