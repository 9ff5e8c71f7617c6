package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// WriteXLSX writes the lead list to a single-sheet workbook at path.
func WriteXLSX(leads []*model.Lead, path string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	headerRow := sheet.AddRow()
	for _, h := range headers {
		headerRow.AddCell().Value = h
	}
	for _, lead := range leads {
		row := sheet.AddRow()
		for _, v := range leadRow(lead) {
			row.AddCell().Value = v
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrap(err, "export: save xlsx file")
	}

	zap.L().Info("xlsx export complete",
		zap.String("path", path),
		zap.Int("leads", len(leads)),
	)
	return nil
}
