// Package xlsx は給与明細監査の結果を Excel ブックとして書き出します。
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ogurasousui/worker-chronology/internal/core/audit"
	"github.com/ogurasousui/worker-chronology/internal/core/calendar"
)

const (
	sheetName   = "Payroll compliance"
	contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	fileName    = "payroll-compliance.xlsx"
)

var headers = []string{"Worker ID", "Last name", "First name", "Email", "Missing payrolls", "Unsigned payrolls"}

// Writer は監査結果を 1 シートのブックに変換します。
type Writer struct{}

// NewWriter は Writer を生成します。
func NewWriter() *Writer {
	return &Writer{}
}

// ContentType はレスポンスの Content-Type を返します。
func (*Writer) ContentType() string {
	return contentType
}

// FileName はダウンロード時のファイル名を返します。
func (*Writer) FileName() string {
	return fileName
}

// Write は 1 行目を見出し、以降を従業員ごとの行としてブックを書き出します。
func (*Writer) Write(w io.Writer, findings []audit.WorkerFindings) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("xlsx: close: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	for col, title := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return fmt.Errorf("xlsx: header %s: %w", cell, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastHeader, style); err != nil {
		return fmt.Errorf("xlsx: apply header style: %w", err)
	}

	for i, finding := range findings {
		row := []any{
			finding.WorkerID,
			finding.LastName,
			finding.FirstName,
			finding.Email,
			joinMonths(finding.MissingPayrolls),
			joinMonths(finding.NotSignedPayrolls),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("xlsx: row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "B", "F", 22); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

func joinMonths(months []calendar.YearMonth) string {
	parts := make([]string, 0, len(months))
	for _, ym := range months {
		parts = append(parts, ym.String())
	}
	return strings.Join(parts, ", ")
}
