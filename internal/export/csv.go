package export

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// WriteCSV writes the lead list to path, one row per lead.
func WriteCSV(leads []*model.Lead, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create csv file")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, lead := range leads {
		if err := w.Write(leadRow(lead)); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}

	zap.L().Info("csv export complete",
		zap.String("path", path),
		zap.Int("leads", len(leads)),
	)
	return nil
}
