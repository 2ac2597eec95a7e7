package service

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MaxBatchRows limita las filas leidas de un archivo de clasificacion por lotes.
const MaxBatchRows = 1000

// batchTextColumns son los nombres de columna reconocidos como texto, en orden de prioridad.
var batchTextColumns = []string{"text", "review", "content", "komentar", "ulasan", "comment"}

// BatchRow es un texto con su posicion (base 0, sin contar cabecera) en el archivo.
type BatchRow struct {
	Row  int
	Text string
}

// ReadBatchTexts lee un CSV o un XLSX (detectando la columna de texto) o un TXT (una linea
// por texto).
func ReadBatchTexts(filename string, r io.Reader) ([]BatchRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readBatchCSV(r)
	case ".xlsx":
		return readBatchXLSX(r)
	case ".txt":
		return readBatchLines(r)
	default:
		return nil, fmt.Errorf("%w: file must be CSV, XLSX or TXT", ErrInvalidInput)
	}
}

func readBatchCSV(r io.Reader) ([]BatchRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidInput, err)
	}

	col := detectTextColumn(header)
	var rows []BatchRow
	for i := 0; i < MaxBatchRows; i++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidInput, i+2, err)
		}
		if col >= len(record) {
			continue
		}
		rows = append(rows, BatchRow{Row: i, Text: record[col]})
	}
	return rows, nil
}

// readBatchXLSX lee solo la primera hoja.
func readBatchXLSX(r io.Reader) ([]BatchRow, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrInvalidInput, err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidInput)
	}
	it, err := book.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidInput, sheets[0], err)
	}
	defer it.Close()

	if !it.Next() {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	header, err := it.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidInput, err)
	}

	col := detectTextColumn(header)
	var rows []BatchRow
	for i := 0; i < MaxBatchRows && it.Next(); i++ {
		record, err := it.Columns()
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidInput, i+2, err)
		}
		if col >= len(record) {
			continue
		}
		rows = append(rows, BatchRow{Row: i, Text: record[col]})
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return rows, nil
}

// detectTextColumn prefiere una columna conocida; si no hay ninguna usa la primera.
func detectTextColumn(header []string) int {
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		for _, known := range batchTextColumns {
			if name == known {
				return i
			}
		}
	}
	return 0
}

func readBatchLines(r io.Reader) ([]BatchRow, error) {
	scanner := bufio.NewScanner(r)
	var rows []BatchRow
	for i := 0; i < MaxBatchRows && scanner.Scan(); i++ {
		rows = append(rows, BatchRow{Row: i, Text: scanner.Text()})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return rows, nil
}
