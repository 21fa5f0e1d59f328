// Package export serializes resolved answer maps: a JSON record per scanned
// sheet, and a row-oriented CSV that accumulates one row per sheet for
// spreadsheet grading.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/omr-tools/mcq-scan/internal/resolve"
)

// AnswerMap flattens resolved answers into 1-based question keys and letter
// values: "A" for a single choice, "NA" for blank, "A|C" for ambiguous.
func AnswerMap(answers []resolve.QuestionAnswer) map[string]string {
	m := make(map[string]string, len(answers))
	for _, qa := range answers {
		m[strconv.Itoa(qa.Question+1)] = qa.Letter()
	}
	return m
}

// SaveJSON writes the answer map to dir/filename as indented JSON, creating
// the directory if needed. Returns the full output path.
func SaveJSON(answers []resolve.QuestionAnswer, dir, filename string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(AnswerMap(answers), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode answers: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// LoadJSON reads an answer map previously written by SaveJSON.
func LoadJSON(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid answer JSON in %s: %w", path, err)
	}
	return m, nil
}

// AppendCSV appends one row of answers for a sheet to a CSV file, writing a
// Q1..Qn header first when the file is new or empty. Questions missing from
// the map export as "NA", so every row has exactly questions columns.
func AppendCSV(answerMap map[string]string, csvPath string, questions int) error {
	stat, err := os.Stat(csvPath)
	needHeader := os.IsNotExist(err) || (err == nil && stat.Size() == 0)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", csvPath, err)
	}

	f, err := os.OpenFile(csvPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", csvPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		header := make([]string, questions)
		for i := range header {
			header[i] = fmt.Sprintf("Q%d", i+1)
		}
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	row := make([]string, questions)
	for i := range row {
		answer, ok := answerMap[strconv.Itoa(i+1)]
		if !ok || answer == "" {
			answer = "NA"
		}
		row[i] = answer
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}

	w.Flush()
	return w.Error()
}
