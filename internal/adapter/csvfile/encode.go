package csvfile

import (
	"encoding/csv"
	"io"

	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

// Encode writes readings as CSV with the cleaned-dataset header. Missing
// values are written as empty cells.
func Encode(w io.Writer, readings []domain.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.OutputHeader()); err != nil {
		return err
	}
	for _, r := range readings {
		if err := cw.Write(domain.FormatRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
