package database

// Record is one stored MOTD: the epoch-seconds start time and the canonical
// JSON of the upstream object. Records are never updated once written.
type Record struct {
	Key   int64  `json:"key"`
	Value string `json:"value"`
}

// Page is one chunk of a full scan. An empty Next means the scan is complete.
type Page struct {
	Records []Record
	Next    string
}
