package encounter

import "sort"

// Level bounds for player characters.
const (
	MinLevel = 1
	MaxLevel = 20
)

// MaxMonsterCount bounds the creatures in one encounter. Evaluate leaves
// counts to its caller; callers accepting outside input enforce this.
const MaxMonsterCount = 1000

// xpByCR holds the base XP award for a single monster of each challenge rating.
var xpByCR = map[ChallengeRating]int{
	0:     10,
	0.125: 25,
	0.25:  50,
	0.5:   100,
	1:     200,
	2:     450,
	3:     700,
	4:     1100,
	5:     1800,
	6:     2300,
	7:     2900,
	8:     3900,
	9:     5000,
	10:    5900,
	11:    7200,
	12:    8400,
	13:    10000,
	14:    11500,
	15:    13000,
	16:    15000,
	17:    18000,
	18:    20000,
	19:    22000,
	20:    25000,
	21:    33000,
	22:    41000,
	23:    50000,
	24:    62000,
	30:    155000,
}

// thresholdsByLevel holds the per-character XP thresholds.
// Index 0 = level 1, index 19 = level 20.
var thresholdsByLevel = [MaxLevel]Thresholds{
	{Easy: 25, Medium: 50, Hard: 75, Deadly: 100},         // 1
	{Easy: 50, Medium: 100, Hard: 150, Deadly: 200},       // 2
	{Easy: 75, Medium: 150, Hard: 225, Deadly: 400},       // 3
	{Easy: 125, Medium: 250, Hard: 375, Deadly: 500},      // 4
	{Easy: 250, Medium: 500, Hard: 750, Deadly: 1100},     // 5
	{Easy: 300, Medium: 600, Hard: 900, Deadly: 1400},     // 6
	{Easy: 350, Medium: 750, Hard: 1100, Deadly: 1700},    // 7
	{Easy: 450, Medium: 900, Hard: 1400, Deadly: 2100},    // 8
	{Easy: 550, Medium: 1100, Hard: 1600, Deadly: 2400},   // 9
	{Easy: 600, Medium: 1200, Hard: 1900, Deadly: 2800},   // 10
	{Easy: 800, Medium: 1600, Hard: 2400, Deadly: 3600},   // 11
	{Easy: 1000, Medium: 2000, Hard: 3000, Deadly: 4500},  // 12
	{Easy: 1100, Medium: 2200, Hard: 3400, Deadly: 5100},  // 13
	{Easy: 1250, Medium: 2500, Hard: 3800, Deadly: 5700},  // 14
	{Easy: 1400, Medium: 2800, Hard: 4300, Deadly: 6400},  // 15
	{Easy: 1600, Medium: 3200, Hard: 4800, Deadly: 7200},  // 16
	{Easy: 2000, Medium: 3900, Hard: 5900, Deadly: 8800},  // 17
	{Easy: 2100, Medium: 4200, Hard: 6300, Deadly: 9500},  // 18
	{Easy: 2400, Medium: 4900, Hard: 7300, Deadly: 10900}, // 19
	{Easy: 2800, Medium: 5700, Hard: 8500, Deadly: 12700}, // 20
}

// multiplierRule maps an inclusive range of monster counts to an XP multiplier.
// A negative max means the range is unbounded above.
type multiplierRule struct {
	min, max int
	factor   float64
}

// multiplierRules are evaluated top to bottom; the first match wins.
var multiplierRules = []multiplierRule{
	{min: 0, max: 1, factor: 1},
	{min: 2, max: 2, factor: 1.5},
	{min: 3, max: 6, factor: 2},
	{min: 7, max: 10, factor: 2.5},
	{min: 11, max: 14, factor: 3},
	{min: 15, max: -1, factor: 4},
}

// XPForCR returns the base XP for one monster of the given rating.
// Ratings missing from the table are worth 0 XP.
func XPForCR(cr ChallengeRating) int {
	return xpByCR[cr]
}

// Multiplier returns the encounter multiplier for the total number of monsters.
func Multiplier(count int) float64 {
	for _, r := range multiplierRules {
		if count >= r.min && (r.max < 0 || count <= r.max) {
			return r.factor
		}
	}
	return 1
}

// ThresholdsForLevel returns the XP thresholds of a single character.
func ThresholdsForLevel(level int) (Thresholds, error) {
	if level < MinLevel || level > MaxLevel {
		return Thresholds{}, invalidLevel(level)
	}
	return thresholdsByLevel[level-1], nil
}

// CRExperience is one row of the XP-by-CR table.
type CRExperience struct {
	ChallengeRating ChallengeRating `json:"cr"`
	XP              int             `json:"xp"`
}

// LevelThresholds is one row of the threshold table.
type LevelThresholds struct {
	Level      int        `json:"level"`
	Thresholds Thresholds `json:"thresholds"`
}

// XPTable returns a copy of the XP-by-CR table ordered by rating.
func XPTable() []CRExperience {
	rows := make([]CRExperience, 0, len(xpByCR))
	for cr, xp := range xpByCR {
		rows = append(rows, CRExperience{ChallengeRating: cr, XP: xp})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ChallengeRating < rows[j].ChallengeRating })
	return rows
}

// ThresholdTable returns a copy of the per-level threshold table.
func ThresholdTable() []LevelThresholds {
	rows := make([]LevelThresholds, MaxLevel)
	for i, t := range thresholdsByLevel {
		rows[i] = LevelThresholds{Level: i + 1, Thresholds: t}
	}
	return rows
}
