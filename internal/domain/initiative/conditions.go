package initiative

// Condition is one of the standard status conditions.
type Condition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var conditions = []Condition{
	{"Blinded", "Can't see. Attacks against it have advantage, its attacks have disadvantage."},
	{"Charmed", "Can't attack the charmer. The charmer has advantage on social checks."},
	{"Deafened", "Can't hear and fails checks that require hearing."},
	{"Frightened", "Disadvantage while the source of fear is in sight. Can't move closer to it."},
	{"Grappled", "Speed becomes 0."},
	{"Incapacitated", "Can't take actions or reactions."},
	{"Invisible", "Can't be seen without magic. Attacks against it have disadvantage."},
	{"Paralyzed", "Incapacitated and can't move or speak. Hits within 5 feet are critical."},
	{"Petrified", "Turned to stone. Resistant to all damage."},
	{"Poisoned", "Disadvantage on attack rolls and ability checks."},
	{"Prone", "Can only crawl. Melee attacks against it have advantage."},
	{"Restrained", "Speed 0. Disadvantage on attacks and Dexterity saves."},
	{"Stunned", "Incapacitated, can't move and speaks falteringly."},
	{"Unconscious", "Incapacitated, drops what it holds and falls prone."},
	{"Exhaustion", "Cumulative penalties in six levels."},
}

// Conditions returns the standard conditions in rulebook order.
func Conditions() []Condition {
	out := make([]Condition, len(conditions))
	copy(out, conditions)
	return out
}
