// Package export renders audit records for operator tooling.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/gep-platform/assignd/core/audit"
)

// WriteJSON writes the audit records to w in JSON format.
func WriteJSON(w io.Writer, records []audit.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes the audit records to w as flat CSV rows. Run records carry
// the selected partner; transition records carry the state change.
func WriteCSV(w io.Writer, records []audit.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "kind", "request_id", "assignment_id", "partner_id", "from", "to", "reason", "score", "candidates"}); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{r.Timestamp.Format(time.RFC3339), string(r.Kind), r.RequestID, "", "", "", "", "", "", ""}
		switch {
		case r.Run != nil:
			rec[4] = r.Run.SelectedPartnerID
			for _, s := range r.Run.Scores {
				if s.PartnerID == r.Run.SelectedPartnerID {
					rec[8] = strconv.FormatFloat(s.Composite, 'f', 4, 64)
					break
				}
			}
			rec[9] = strconv.Itoa(len(r.Run.Scores))
		case r.Transition != nil:
			rec[3] = r.Transition.AssignmentID
			rec[5] = string(r.Transition.From)
			rec[6] = string(r.Transition.To)
			rec[7] = r.Transition.Reason
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
