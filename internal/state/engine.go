package state

import "time"

// ItemRecord is one roster entry or queue ticket as written to the
// snapshot file.
type ItemRecord struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Index      int    `json:"index"`
	IsCutline  bool   `json:"is_cutline"`
	InQueue    bool   `json:"in_queue"`
	InBoarding bool   `json:"in_boarding"`
}

// EngineState is the crash-recovery snapshot of the queue engine.
type EngineState struct {
	QueueStarted    bool `json:"queue_started"`
	BoardingStarted bool `json:"boarding_started"`
	CutlineStarted  bool `json:"cutline_started"`

	UserQueued  []string `json:"user_queued"`
	UserBoarded []string `json:"user_boarded"`
	UserCutline []string `json:"user_cutline"`

	QueueList    []ItemRecord `json:"queue_list"`
	CutlineList  []ItemRecord `json:"cutline_list"`
	BoardingList []ItemRecord `json:"boarding_list"`
	NameList     []ItemRecord `json:"name_list"`

	RecentWinners []string `json:"recent_winners"`
	// Promoted holds the IDs of drawn tickets, in promotion order.
	Promoted []string `json:"promoted"`

	// Roster stamps the roster file as the engine last read or wrote it.
	// A file that still matches needs no re-read on restore.
	Roster *RosterStamp `json:"roster,omitempty"`
}

// RosterStamp identifies one version of the roster file.
type RosterStamp struct {
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// EngineStore persists EngineState.
type EngineStore struct {
	*Store[*EngineState]
}

// NewEngineStore creates a store for the snapshot at path.
func NewEngineStore(path string) *EngineStore {
	return &EngineStore{Store: NewStore(path, &EngineState{})}
}
