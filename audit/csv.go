package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/provsec/chainregistry/interfaces"
)

// csvHeader is the column layout of exported audit trails.
var csvHeader = []string{"seq", "registry", "op", "id", "hash", "actor", "time"}

// WriteCSV writes the given events to w in CSV form, one row per event,
// preceded by a header row.
func WriteCSV(w io.Writer, events []interfaces.AuditEvent) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, event := range events {
		row := []string{
			strconv.FormatUint(event.Seq, 10),
			event.Registry,
			string(event.Op),
			event.ID.String(),
			event.Hash.String(),
			event.Actor.String(),
			strconv.FormatUint(event.Time, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
