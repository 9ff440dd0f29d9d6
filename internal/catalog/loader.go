package catalog

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped fixture files from disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based fixture loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "fixture-loader").Logger(),
	}
}

// Load reads a gzipped fixture file from the local file system.
func (l *fileLoader) Load(ctx context.Context, filePath string) (Records, error) {
	l.logger.Info().Str("file", filePath).Msg("loading fixture file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open fixture file")
		return nil, fmt.Errorf("failed to open fixture file %s: %w", filePath, err)
	}
	defer file.Close()

	records, err := readRecords(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("error reading fixture file")
		return nil, fmt.Errorf("error reading fixture file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("records_loaded", len(records)).
		Msg("fixture file loaded successfully")

	return records, nil
}

// readRecords decompresses r and returns its non-blank lines.
func readRecords(ctx context.Context, r io.Reader) (Records, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var records Records
	lineCount := 0
	for scanner.Scan() {
		if lineCount%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		lineCount++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		records = append(records, bytes.Clone(line))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
