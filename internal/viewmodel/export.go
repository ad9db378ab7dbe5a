package viewmodel

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/oactl/internal/errors"
)

// DefaultExportName is used when the server sends no file name.
const DefaultExportName = "员工信息.xlsx"

// Export is a downloaded staff workbook.
type Export struct {
	Filename string `json:"filename" yaml:"filename"`
	Data     []byte `json:"-" yaml:"-"`
	Checksum string `json:"blake3" yaml:"blake3"`
	Size     int    `json:"size" yaml:"size"`
	Staff    int    `json:"staff" yaml:"staff"`
}

// NewExport wraps a downloaded body.
func NewExport(data []byte, filename string, staff int) *Export {
	if filename == "" {
		filename = DefaultExportName
	}
	sum := blake3.Sum256(data)
	return &Export{
		Filename: filepath.Base(filename),
		Data:     data,
		Checksum: hex.EncodeToString(sum[:]),
		Size:     len(data),
		Staff:    staff,
	}
}

// Save writes the workbook into dir and returns its path.
func (e *Export) Save(dir string) (string, error) {
	path := filepath.Join(dir, e.Filename)
	if err := os.WriteFile(path, e.Data, 0o600); err != nil {
		return "", errors.Wrap(errors.ErrCodeStorageWrite, "failed to save "+e.Filename, err)
	}
	return path, nil
}

// Preview reads up to maxRows rows of the first sheet, header included.
// maxRows <= 0 reads every row.
func (e *Export) Preview(maxRows int) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(e.Data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, "downloaded file is not a valid workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, "failed to read workbook", err)
	}
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	return rows, nil
}
