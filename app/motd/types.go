package motd

import "encoding/json"

// God choice values.
const (
	GodChoiceOwned   = "Owned"
	GodChoiceAll     = "All"
	GodChoiceLimited = "Limited"
)

// CleanedRecord is the structured projection of a RawRecord published in the
// snapshot. Optional attributes are omitted when a rule did not set them.
type CleanedRecord struct {
	StartTime     int64    `json:"startTime"`
	InternalName  string   `json:"internalName,omitempty"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	GameMode      string   `json:"gameMode"`
	Rules         []string `json:"rules"`
	UnparsedRules []string `json:"unparsedRules"`

	StartingGold  *int       `json:"startingGold,omitempty"`
	StartingCDR   *int       `json:"startingCDR,omitempty"`
	MaximumCDR    *int       `json:"maximumCDR,omitempty"`
	StartingLevel *int       `json:"startingLevel,omitempty"`
	GodChoice     string     `json:"godChoice,omitempty"`
	GodSelection  NullString `json:"godSelection,omitzero"`
	AllowedGods   [][]int    `json:"allowedGods,omitempty"`
	TeamSize      *int       `json:"teamSize,omitempty"`

	InfiniteMana     bool `json:"infiniteMana,omitempty"`
	FastXPSpooling   bool `json:"fastXPSpooling,omitempty"`
	FastGoldSpooling bool `json:"fastGoldSpooling,omitempty"`
	NoBaseHealing    bool `json:"noBaseHealing,omitempty"`

	ArenaScoringPortalBrutesOnly bool `json:"arenaScoringPortalBrutesOnly,omitempty"`
	ArenaScoringNoMinionsKills   bool `json:"arenaScoringNoMinionsKills,omitempty"`
	ArenaScoringStartingTickets  *int `json:"arenaScoringStartingTickets,omitempty"`
}

// NullString is an attribute that can be absent, null or a string. Only the
// absent state is omitted from JSON.
type NullString struct {
	Set   bool
	Value *string
}

func (n NullString) IsZero() bool {
	return !n.Set
}

func (n NullString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

func (n *NullString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func intPtr(v int) *int {
	return &v
}
