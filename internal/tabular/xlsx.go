package tabular

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/datops/internal/dat"
)

// SheetName is the worksheet XLSX output is written to.
const SheetName = "Sheet1"

// ErrSheetFull is returned once a worksheet reaches Excel's row limit.
var ErrSheetFull = errors.New("xlsx: worksheet row limit reached")

// XLSX streams rows into a single worksheet. The workbook is assembled in a
// temporary file by excelize and copied to the destination on Close.
type XLSX struct {
	dst  io.Writer
	file *excelize.File
	sw   *excelize.StreamWriter
	row  int
	err  error
}

// NewXLSX returns an XLSX writer targeting w.
func NewXLSX(w io.Writer) *XLSX {
	x := &XLSX{dst: w, file: excelize.NewFile()}
	x.sw, x.err = x.file.NewStreamWriter(SheetName)
	return x
}

func (x *XLSX) WriteHeader(h dat.Header) error {
	return x.Write(h)
}

func (x *XLSX) Write(values []string) error {
	if x.err != nil {
		return x.err
	}
	if x.row >= excelize.TotalRows {
		x.err = ErrSheetFull
		return x.err
	}
	x.row++

	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		x.err = err
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := x.sw.SetRow(cell, cells); err != nil {
		x.err = fmt.Errorf("xlsx row %d: %w", x.row, err)
	}
	return x.err
}

func (x *XLSX) Close() error {
	defer x.file.Close()
	if x.err != nil {
		return x.err
	}
	if err := x.sw.Flush(); err != nil {
		return fmt.Errorf("xlsx flush: %w", err)
	}
	if _, err := x.file.WriteTo(x.dst); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
