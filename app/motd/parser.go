package motd

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

const (
	cdrNote = "(no use in stacking more CDR)"

	// A 2016 event description that was published as a rule line.
	promotionalJoustRule = "take a random god and 100,000 gold into a hyper speed 5v5 joust."
)

var (
	errUnknownRule = errors.New("unknown rule")
	errNoValue     = errors.New("rule has no value")

	suggestedByPattern = regexp.MustCompile(`(?i)^(First )?suggested by`)
)

type rule struct {
	key      string
	value    string
	hasValue bool
}

func (r rule) requireValue() (string, error) {
	if !r.hasValue {
		return "", errNoValue
	}
	return r.value, nil
}

func (r rule) intValue(strip ...string) (int, error) {
	v, err := r.requireValue()
	if err != nil {
		return 0, err
	}
	for _, s := range strip {
		v = strings.ReplaceAll(v, s, "")
	}
	return strconv.Atoi(strings.TrimSpace(v))
}

type ruleHandler func(c *CleanedRecord, r rule) error

// ruleHandlers classifies rule lines by their exact key.
var ruleHandlers = map[string]ruleHandler{
	"Starting Gold":                       setStartingGold,
	"Starting/Maximum Cooldown Reduction": setCooldownBounds,
	"Cooldown Reduction":                  setCooldownBounds,
	"Starting Cooldown Reduction":         setStartingCDR,
	"Starting Cooldown":                   setStartingCDR,
	"Maximum Cooldown Reduction":          setMaximumCDR,
	"Maximum Cooldown":                    setMaximumCDR,
	"Gods":                                setGodChoice,
	"God":                                 setGodChoice,
	"Selection":                           setGodSelection,
	"Map":                                 setMap,
	"Infinite Mana":                       setInfiniteMana,
	"Starting Level":                      setStartingLevel,
	"Increased XP and Gold Spooling":      setFastSpooling,
	"Gp5":                                 setFastGoldSpooling,
	"Base Heal Disabled":                  setNoBaseHealing,
	"Fountain Healing Disabled":           setNoBaseHealing,
	"Starting Ticket Count":               setStartingTickets,

	"Only brute minions count when entering an enemy portal": setPortalBrutesOnly,
	"Minion deaths don't remove enemy tickets.":              setNoMinionKills,
}

// patternRules are consulted in order when no exact key matches.
var patternRules = []struct {
	matches func(key string) bool
	apply   ruleHandler
}{
	{matches: suggestedByPattern.MatchString, apply: func(*CleanedRecord, rule) error { return nil }},
	{matches: isPromotionalJoust, apply: applyPromotionalJoust},
}

// Parse converts a raw MOTD into its cleaned form. Rule lines that cannot be
// classified are kept in UnparsedRules; only a bad start time, a malformed
// team list or maxPlayers, or a game mode without a default team size fail
// the record.
func Parse(raw RawRecord) (*CleanedRecord, error) {
	start, err := raw.StartTime()
	if err != nil {
		return nil, err
	}

	c := &CleanedRecord{
		StartTime:     start.Unix(),
		Name:          raw.String(FieldTitle),
		Rules:         []string{},
		UnparsedRules: []string{},
	}

	if name := raw.String(FieldName); name != c.Name {
		c.InternalName = name
	}

	parts := splitDescription(raw.String(FieldDescription))
	if len(parts) > 0 {
		c.Description = cleanText(parts[0])
		parts = parts[1:]
	}

	c.GameMode = NormalizeGameMode(raw.String(FieldGameMode))

	for _, part := range parts {
		text := cleanText(part)
		c.Rules = append(c.Rules, text)
		if err := applyRule(c, splitRule(text)); err != nil {
			c.UnparsedRules = append(c.UnparsedRules, text)
		}
	}

	if err := setAllowedGods(c, raw); err != nil {
		return nil, fmt.Errorf("motd %d: %w", c.StartTime, err)
	}

	maxPlayers, ok, err := raw.MaxPlayers()
	if err != nil {
		return nil, fmt.Errorf("motd %d: %w", c.StartTime, err)
	}
	if ok {
		size, err := DefaultTeamSize(c.GameMode)
		if err != nil {
			return nil, fmt.Errorf("motd %d: %w", c.StartTime, err)
		}
		if size != maxPlayers {
			c.TeamSize = intPtr(maxPlayers)
		}
	}

	return c, nil
}

func splitDescription(desc string) []string {
	var parts []string
	for _, part := range strings.Split(desc, "<li>") {
		part = strings.ReplaceAll(part, "</li>", "")
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// cleanText replaces typographic apostrophes, collapses whitespace and makes
// sure every colon is followed by a space.
func cleanText(s string) string {
	runes := []rune(strings.ReplaceAll(s, "’", "'"))

	var b strings.Builder
	b.Grow(len(runes))
	inSpace := false
	for i, r := range runes {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
		if r == ':' && i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

func splitRule(text string) rule {
	key, value, found := strings.Cut(text, ":")
	return rule{
		key:      strings.TrimSpace(key),
		value:    strings.TrimSpace(value),
		hasValue: found,
	}
}

func applyRule(c *CleanedRecord, r rule) error {
	if handler, ok := ruleHandlers[r.key]; ok {
		return handler(c, r)
	}
	for _, p := range patternRules {
		if p.matches(r.key) {
			return p.apply(c, r)
		}
	}
	return errUnknownRule
}

func setInfiniteMana(c *CleanedRecord, _ rule) error {
	c.InfiniteMana = true
	return nil
}

func setFastSpooling(c *CleanedRecord, _ rule) error {
	c.FastXPSpooling = true
	c.FastGoldSpooling = true
	return nil
}

func setFastGoldSpooling(c *CleanedRecord, _ rule) error {
	c.FastGoldSpooling = true
	return nil
}

func setNoBaseHealing(c *CleanedRecord, _ rule) error {
	c.NoBaseHealing = true
	return nil
}

func setPortalBrutesOnly(c *CleanedRecord, _ rule) error {
	c.ArenaScoringPortalBrutesOnly = true
	return nil
}

func setNoMinionKills(c *CleanedRecord, _ rule) error {
	c.ArenaScoringNoMinionsKills = true
	return nil
}

func setStartingGold(c *CleanedRecord, r rule) error {
	n, err := r.intValue(",")
	if err != nil {
		return err
	}
	c.StartingGold = intPtr(n)
	return nil
}

func setCooldownBounds(c *CleanedRecord, r rule) error {
	n, err := r.intValue("%", cdrNote)
	if err != nil {
		return err
	}
	c.StartingCDR = intPtr(n)
	c.MaximumCDR = intPtr(n)
	return nil
}

func setStartingCDR(c *CleanedRecord, r rule) error {
	n, err := r.intValue("%")
	if err != nil {
		return err
	}
	c.StartingCDR = intPtr(n)
	return nil
}

func setMaximumCDR(c *CleanedRecord, r rule) error {
	n, err := r.intValue("%")
	if err != nil {
		return err
	}
	c.MaximumCDR = intPtr(n)
	return nil
}

func setGodChoice(c *CleanedRecord, r rule) error {
	switch {
	case r.hasValue && r.value == GodChoiceOwned:
		c.GodChoice = GodChoiceOwned
	case r.hasValue && r.value == GodChoiceAll:
		c.GodChoice = GodChoiceAll
	default:
		c.GodChoice = GodChoiceLimited
	}
	return nil
}

func setGodSelection(c *CleanedRecord, r rule) error {
	c.GodSelection = NullString{Set: true}
	if r.hasValue {
		v := r.value
		c.GodSelection.Value = &v
	}
	return nil
}

func setMap(c *CleanedRecord, r rule) error {
	v, err := r.requireValue()
	if err != nil {
		return err
	}
	if c.GameMode == "" || c.GameMode == GameModeUnknown {
		c.GameMode = NormalizeGameMode(v)
	}
	return nil
}

func setStartingLevel(c *CleanedRecord, r rule) error {
	n, err := r.intValue()
	if err != nil {
		return err
	}
	c.StartingLevel = intPtr(n)
	return nil
}

func setStartingTickets(c *CleanedRecord, r rule) error {
	n, err := r.intValue()
	if err != nil {
		return err
	}
	c.ArenaScoringStartingTickets = intPtr(n)
	return nil
}

func isPromotionalJoust(key string) bool {
	fold := cases.Fold()
	return fold.String(key) == fold.String(promotionalJoustRule)
}

func applyPromotionalJoust(c *CleanedRecord, _ rule) error {
	c.StartingGold = intPtr(100_000)
	c.TeamSize = intPtr(5)
	c.GameMode = "Joust"
	return nil
}

func setAllowedGods(c *CleanedRecord, raw RawRecord) error {
	if c.GodChoice != GodChoiceLimited {
		return nil
	}

	teams := []string{raw.String(FieldTeam1GodsCSV), raw.String(FieldTeam2GodsCSV)}
	if strings.TrimSpace(teams[0]) == "" && strings.TrimSpace(teams[1]) == "" {
		return nil
	}

	c.AllowedGods = [][]int{}
	for _, csv := range teams {
		ids, err := parseGodIDs(csv)
		if err != nil {
			return err
		}
		if !slices.ContainsFunc(c.AllowedGods, func(existing []int) bool { return slices.Equal(existing, ids) }) {
			c.AllowedGods = append(c.AllowedGods, ids)
		}
	}
	return nil
}

// parseGodIDs returns the sorted, deduplicated IDs of a comma-separated list.
func parseGodIDs(csv string) ([]int, error) {
	ids := []int{}
	for _, field := range strings.Split(csv, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid god id %q: %w", field, err)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}
