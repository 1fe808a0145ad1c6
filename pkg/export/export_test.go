package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gep-platform/assignd/core/audit"
	"github.com/gep-platform/assignd/core/model"
)

func sampleRecords() []audit.Record {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return []audit.Record{
		audit.RunRecord(model.OptimizationRun{
			ID:                "run-1",
			RequestID:         "req-1",
			Timestamp:         ts,
			SelectedPartnerID: "doc-1",
			Scores: []model.CandidateScore{
				{PartnerID: "doc-1", Composite: 0.8731, Rank: 1},
				{PartnerID: "doc-2", Composite: 0.6402, Rank: 2},
			},
		}),
		audit.TransitionRecord(ts.Add(time.Minute), audit.Transition{
			AssignmentID: "a1",
			RequestID:    "req-1",
			From:         model.AssignmentProposed,
			To:           model.AssignmentAccepted,
			Reason:       "partner accepted",
		}),
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRecords()))
	var out []audit.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "doc-1", out[0].Run.SelectedPartnerID)
	assert.Equal(t, "a1", out[1].Transition.AssignmentID)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "timestamp", rows[0][0])
	assert.Equal(t, "run", rows[1][1])
	assert.Equal(t, "doc-1", rows[1][4])
	assert.Equal(t, "0.8731", rows[1][8])
	assert.Equal(t, "2", rows[1][9])
	assert.Equal(t, "transition", rows[2][1])
	assert.Equal(t, "proposed", rows[2][5])
	assert.Equal(t, "accepted", rows[2][6])
}
