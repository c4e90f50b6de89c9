// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// SummaryRebuildTask represents one row whose summary should be regenerated.
type SummaryRebuildTask struct {
	RowID string `json:"row_id"`
	// Kind 为 extractive 或 abstractive。
	Kind string `json:"kind"`
}
