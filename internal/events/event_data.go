package events

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// RunCompletedData contains data for RunCompleted events
type RunCompletedData struct {
	RunID              string   `json:"run_id"`
	Status             string   `json:"status"`
	Trials             int      `json:"trials"`
	Mean               float64  `json:"mean"`
	StdDev             float64  `json:"std_dev"`
	DeficitProbability *float64 `json:"deficit_probability,omitempty"`
	ElapsedMs          int64    `json:"elapsed_ms"`
}

// EventType returns the event type for RunCompletedData
func (d *RunCompletedData) EventType() EventType {
	return RunCompleted
}

// RunFailedData contains data for RunFailed events
type RunFailedData struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// EventType returns the event type for RunFailedData
func (d *RunFailedData) EventType() EventType {
	return RunFailed
}

// RunsPrunedData contains data for RunsPruned events
type RunsPrunedData struct {
	Deleted int64 `json:"deleted"`
	Cutoff  int64 `json:"cutoff"`
}

// EventType returns the event type for RunsPrunedData
func (d *RunsPrunedData) EventType() EventType {
	return RunsPruned
}

// RunsArchivedData contains data for RunsArchived events
type RunsArchivedData struct {
	Count  int    `json:"count"`
	Bucket string `json:"bucket"`
}

// EventType returns the event type for RunsArchivedData
func (d *RunsArchivedData) EventType() EventType {
	return RunsArchived
}
