package motd

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newRecord(fields map[string]any) RawRecord {
	r := RawRecord{
		FieldStartDateTime: "1/15/2024 3:00:00 PM",
		FieldName:          "Test MOTD",
		FieldTitle:         "Test MOTD",
		FieldDescription:   "",
		FieldGameMode:      "Conquest",
		FieldTeam1GodsCSV:  "",
		FieldTeam2GodsCSV:  "",
		FieldMaxPlayers:    nil,
	}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

func mustParse(t *testing.T, r RawRecord) *CleanedRecord {
	t.Helper()
	c, err := Parse(r)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return c
}

func TestParseMapSetsUnknownGameMode(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{
		FieldDescription: "<li>Arena<li>Starting Gold: 10,000<li>Map: Arena",
		FieldGameMode:    "Unknown",
	}))

	want := &CleanedRecord{
		StartTime:     1705330800,
		Name:          "Test MOTD",
		Description:   "Arena",
		GameMode:      "Arena",
		Rules:         []string{"Starting Gold: 10,000", "Map: Arena"},
		UnparsedRules: []string{},
		StartingGold:  intPtr(10000),
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMapKeepsKnownGameMode(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{
		FieldDescription: "<li>Desc<li>Map: Arena_V3",
		FieldGameMode:    "Joust 3v3",
	}))

	if c.GameMode != "Joust" {
		t.Errorf("Expected game mode 'Joust', got '%s'", c.GameMode)
	}
	if len(c.UnparsedRules) != 0 {
		t.Errorf("Expected no unparsed rules, got %v", c.UnparsedRules)
	}
}

func TestParseCooldownReduction(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{
		FieldDescription: "<li>Fast<li>Cooldown Reduction: 40% (no use in stacking more CDR)",
	}))

	if c.StartingCDR == nil || *c.StartingCDR != 40 {
		t.Errorf("Expected startingCDR 40, got %v", c.StartingCDR)
	}
	if c.MaximumCDR == nil || *c.MaximumCDR != 40 {
		t.Errorf("Expected maximumCDR 40, got %v", c.MaximumCDR)
	}
}

func TestParseSeparateCooldownBounds(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{
		FieldDescription: "<li>Fast<li>Starting Cooldown Reduction: 20%<li>Maximum Cooldown: 60%",
	}))

	if c.StartingCDR == nil || *c.StartingCDR != 20 {
		t.Errorf("Expected startingCDR 20, got %v", c.StartingCDR)
	}
	if c.MaximumCDR == nil || *c.MaximumCDR != 60 {
		t.Errorf("Expected maximumCDR 60, got %v", c.MaximumCDR)
	}
}

func TestParseUnknownRules(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{
		FieldDescription: "<li>Desc</li><li>Bananas: everywhere</li><li>Everyone is a hunter</li>",
	}))

	want := []string{"Bananas: everywhere", "Everyone is a hunter"}
	if diff := cmp.Diff(want, c.Rules); diff != "" {
		t.Errorf("Rules mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, c.UnparsedRules); diff != "" {
		t.Errorf("Unparsed rules mismatch (-want +got):\n%s", diff)
	}
}

func TestParseUnparseableValues(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{
		FieldDescription: "<li>Desc<li>Starting Gold: lots<li>Starting Level<li>Starting Ticket Count: 400",
	}))

	if c.StartingGold != nil {
		t.Errorf("Expected no starting gold, got %d", *c.StartingGold)
	}
	if c.StartingLevel != nil {
		t.Errorf("Expected no starting level, got %d", *c.StartingLevel)
	}
	if c.ArenaScoringStartingTickets == nil || *c.ArenaScoringStartingTickets != 400 {
		t.Errorf("Expected 400 starting tickets, got %v", c.ArenaScoringStartingTickets)
	}

	want := []string{"Starting Gold: lots", "Starting Level"}
	if diff := cmp.Diff(want, c.UnparsedRules); diff != "" {
		t.Errorf("Unparsed rules mismatch (-want +got):\n%s", diff)
	}
	if len(c.Rules) != 3 {
		t.Errorf("Expected 3 rules, got %d", len(c.Rules))
	}
}

func TestParseSuggestedByIsDiscarded(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{
		FieldDescription: "<li>Desc<li>First Suggested by: SomePlayer<li>suggested by the community",
	}))

	if len(c.Rules) != 2 {
		t.Errorf("Expected 2 rules, got %d", len(c.Rules))
	}
	if len(c.UnparsedRules) != 0 {
		t.Errorf("Expected no unparsed rules, got %v", c.UnparsedRules)
	}
}

func TestParsePromotionalJoust(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{
		FieldDescription: "<li>Hyper speed<li>Take a random god and 100,000 gold into a hyper speed 5v5 Joust.",
		FieldGameMode:    "Conquest",
	}))

	if c.StartingGold == nil || *c.StartingGold != 100000 {
		t.Errorf("Expected starting gold 100000, got %v", c.StartingGold)
	}
	if c.TeamSize == nil || *c.TeamSize != 5 {
		t.Errorf("Expected team size 5, got %v", c.TeamSize)
	}
	if c.GameMode != "Joust" {
		t.Errorf("Expected game mode 'Joust', got '%s'", c.GameMode)
	}
}

func TestParseFlags(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{
		FieldDescription: "<li>Flags<li>Infinite Mana<li>Increased XP and Gold Spooling<li>Fountain Healing Disabled" +
			"<li>Only brute minions count when entering an enemy portal<li>Minion deaths don't remove enemy tickets.",
	}))

	if !c.InfiniteMana || !c.FastXPSpooling || !c.FastGoldSpooling || !c.NoBaseHealing {
		t.Errorf("Expected mana, spooling and healing flags to be set: %+v", c)
	}
	if !c.ArenaScoringPortalBrutesOnly || !c.ArenaScoringNoMinionsKills {
		t.Errorf("Expected arena scoring flags to be set: %+v", c)
	}
	if len(c.UnparsedRules) != 0 {
		t.Errorf("Expected no unparsed rules, got %v", c.UnparsedRules)
	}
}

func TestParseGodChoice(t *testing.T) {
	tests := map[string]string{
		"Gods: Owned":          GodChoiceOwned,
		"Gods: All":            GodChoiceAll,
		"God: Thor, Loki":      GodChoiceLimited,
		"Gods":                 GodChoiceLimited,
		"Gods: Random Hunters": GodChoiceLimited,
	}

	for line, want := range tests {
		c := mustParse(t, newRecord(map[string]any{FieldDescription: "<li>Desc<li>" + line}))
		if c.GodChoice != want {
			t.Errorf("%q: expected god choice '%s', got '%s'", line, want, c.GodChoice)
		}
	}
}

func TestParseAllowedGods(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{
		FieldDescription:  "<li>Desc<li>Gods: Limited<li>Selection: Random",
		FieldTeam1GodsCSV: "3,1,2,2",
		FieldTeam2GodsCSV: "2, 1, 3",
	}))

	if diff := cmp.Diff([][]int{{1, 2, 3}}, c.AllowedGods); diff != "" {
		t.Errorf("Allowed gods mismatch (-want +got):\n%s", diff)
	}
	if !c.GodSelection.Set || c.GodSelection.Value == nil || *c.GodSelection.Value != "Random" {
		t.Errorf("Expected god selection 'Random', got %+v", c.GodSelection)
	}

	c = mustParse(t, newRecord(map[string]any{
		FieldDescription:  "<li>Desc<li>Gods: Limited",
		FieldTeam1GodsCSV: "1,2",
		FieldTeam2GodsCSV: "5",
	}))
	if diff := cmp.Diff([][]int{{1, 2}, {5}}, c.AllowedGods); diff != "" {
		t.Errorf("Allowed gods mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAllowedGodsIgnoredUnlessLimited(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{
		FieldDescription:  "<li>Desc<li>Gods: All",
		FieldTeam1GodsCSV: "1,2",
	}))

	if c.AllowedGods != nil {
		t.Errorf("Expected no allowed gods, got %v", c.AllowedGods)
	}
}

func TestParseInvalidGodIDs(t *testing.T) {
	_, err := Parse(newRecord(map[string]any{
		FieldDescription:  "<li>Desc<li>Gods: Limited",
		FieldTeam1GodsCSV: "1,Thor",
	}))
	if err == nil {
		t.Error("Expected error for non-numeric god id")
	}
}

func TestParseTeamSizeOverride(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{
		FieldGameMode:   "Conquest (3v3)",
		FieldMaxPlayers: "3",
	}))
	if c.TeamSize == nil || *c.TeamSize != 3 {
		t.Errorf("Expected team size 3, got %v", c.TeamSize)
	}

	c = mustParse(t, newRecord(map[string]any{
		FieldGameMode:   "Conquest",
		FieldMaxPlayers: "5",
	}))
	if c.TeamSize != nil {
		t.Errorf("Expected no team size override, got %d", *c.TeamSize)
	}

	c = mustParse(t, newRecord(map[string]any{
		FieldGameMode:   "Conquest",
		FieldMaxPlayers: "0",
	}))
	if c.TeamSize == nil || *c.TeamSize != 0 {
		t.Errorf("Expected team size 0 for maxPlayers \"0\", got %v", c.TeamSize)
	}

	c = mustParse(t, newRecord(map[string]any{
		FieldGameMode:   "Brand New Mode",
		FieldMaxPlayers: json.Number("0"),
	}))
	if c.TeamSize != nil {
		t.Errorf("Expected numeric zero maxPlayers to be ignored, got %d", *c.TeamSize)
	}

	_, err := Parse(newRecord(map[string]any{
		FieldGameMode:   "Brand New Mode",
		FieldMaxPlayers: "0",
	}))
	var modeErr *UnknownGameModeError
	if !errors.As(err, &modeErr) {
		t.Errorf("Expected UnknownGameModeError for maxPlayers \"0\", got: %v", err)
	}
}

func TestParseGodSelectionEncoding(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"<li>Desc<li>Selection: Random", `"godSelection":"Random"`},
		{"<li>Desc<li>Selection:", `"godSelection":""`},
		{"<li>Desc<li>Selection", `"godSelection":null`},
	}

	for _, tt := range tests {
		c := mustParse(t, newRecord(map[string]any{FieldDescription: tt.description}))
		data, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("Failed to encode: %v", err)
		}
		if !strings.Contains(string(data), tt.want) {
			t.Errorf("%s: expected %s in %s", tt.description, tt.want, data)
		}

		var back CleanedRecord
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if diff := cmp.Diff(c.GodSelection, back.GodSelection); diff != "" {
			t.Errorf("%s: god selection mismatch (-want +got):\n%s", tt.description, diff)
		}
	}

	c := mustParse(t, newRecord(map[string]any{FieldDescription: "<li>Desc"}))
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if strings.Contains(string(data), "godSelection") {
		t.Errorf("Expected godSelection to be omitted, got %s", data)
	}
}

func TestParseUnknownGameModeWithMaxPlayers(t *testing.T) {
	_, err := Parse(newRecord(map[string]any{
		FieldGameMode:   "Brand New Mode",
		FieldMaxPlayers: "4",
	}))

	var modeErr *UnknownGameModeError
	if !errors.As(err, &modeErr) {
		t.Fatalf("Expected UnknownGameModeError, got: %v", err)
	}
	if modeErr.GameMode != "Brand New Mode" {
		t.Errorf("Expected game mode 'Brand New Mode', got '%s'", modeErr.GameMode)
	}
}

func TestParseInvalidStartTime(t *testing.T) {
	_, err := Parse(newRecord(map[string]any{FieldStartDateTime: "2024-01-15T15:00:00Z"}))
	if !errors.Is(err, ErrInvalidStartTime) {
		t.Errorf("Expected ErrInvalidStartTime, got: %v", err)
	}
}

func TestParseNames(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{
		FieldName:  "motd_2024_01_15",
		FieldTitle: "Hyper Joust",
	}))
	if c.InternalName != "motd_2024_01_15" {
		t.Errorf("Expected internal name 'motd_2024_01_15', got '%s'", c.InternalName)
	}
	if c.Name != "Hyper Joust" {
		t.Errorf("Expected name 'Hyper Joust', got '%s'", c.Name)
	}

	c = mustParse(t, newRecord(nil))
	if c.InternalName != "" {
		t.Errorf("Expected no internal name, got '%s'", c.InternalName)
	}
}

func TestParseEmptyDescription(t *testing.T) {
	c := mustParse(t, newRecord(map[string]any{FieldDescription: "<li></li>"}))
	if c.Description != "" {
		t.Errorf("Expected empty description, got '%s'", c.Description)
	}
	if c.Rules == nil || c.UnparsedRules == nil {
		t.Error("Expected rule lists to be empty, not nil")
	}
}

func TestCleanText(t *testing.T) {
	tests := map[string]string{
		"  It’s   a\n\ttest  ":      "It's a test",
		"Starting Gold:10,000":      "Starting Gold: 10,000",
		"Map: Arena":                "Map: Arena",
		"Ends with colon:":          "Ends with colon:",
		"Time 12:30 <b>today</b>  ": "Time 12: 30 <b>today</b>",
	}

	for in, want := range tests {
		if got := cleanText(in); got != want {
			t.Errorf("cleanText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	raw := newRecord(map[string]any{
		FieldDescription:  "<li>Round <b>trip</b><li>Gods: Limited<li>Starting Gold: 2,500",
		FieldTeam1GodsCSV: "9,8",
		FieldMaxPlayers:   "3",
		"ret_msg":         nil,
	})

	direct := mustParse(t, raw)

	value, err := raw.Canonical()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	decoded, err := DecodeRecord(value)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	roundTripped := mustParse(t, decoded)

	if diff := cmp.Diff(direct, roundTripped); diff != "" {
		t.Errorf("Round trip mismatch (-direct +decoded):\n%s", diff)
	}
}
