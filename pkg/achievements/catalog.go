package achievements

// CriteriaKind enumerates the known unlock rule types
type CriteriaKind string

const (
	// KindHeight unlocks when a run reaches the threshold height
	KindHeight CriteriaKind = "height"
	// KindCompletion unlocks on any completed run
	KindCompletion CriteriaKind = "completion"
	// KindCompletionTime unlocks on a completed run at or under the threshold seconds
	KindCompletionTime CriteriaKind = "completion_time"
	// KindCompletions unlocks once the player's completed-run count reaches the threshold
	KindCompletions CriteriaKind = "completions"
	// KindGamesPlayed unlocks once the player's total run count reaches the threshold
	KindGamesPlayed CriteriaKind = "games_played"
)

// Criteria is the tagged unlock rule carried by a definition.
// Threshold is meaningless for KindCompletion and left at zero there.
type Criteria struct {
	Kind      CriteriaKind `json:"type"`
	Threshold int          `json:"value"`
}

// Definition describes a single achievement in the static catalog
type Definition struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Icon         string   `json:"icon"`
	Criteria     Criteria `json:"unlock_criteria"`
	UnlockHeight int      `json:"unlock_height"`
}

// Catalog is the fixed achievement list, in display order.
// Loaded once at process start and never mutated.
var Catalog = []Definition{
	{
		ID:           "first_steps",
		Name:         "Primeiros Passos",
		Description:  "Alcance 10 metros de altura",
		Icon:         "🏃‍♂️",
		Criteria:     Criteria{Kind: KindHeight, Threshold: 10},
		UnlockHeight: 10,
	},
	{
		ID:           "getting_high",
		Name:         "Subindo Alto",
		Description:  "Alcance 50 metros de altura",
		Icon:         "🌤️",
		Criteria:     Criteria{Kind: KindHeight, Threshold: 50},
		UnlockHeight: 50,
	},
	{
		ID:           "sky_walker",
		Name:         "Caminhante do Céu",
		Description:  "Alcance 100 metros de altura",
		Icon:         "☁️",
		Criteria:     Criteria{Kind: KindHeight, Threshold: 100},
		UnlockHeight: 100,
	},
	{
		ID:           "stratosphere",
		Name:         "Estratosfera",
		Description:  "Alcance 200 metros de altura",
		Icon:         "🌌",
		Criteria:     Criteria{Kind: KindHeight, Threshold: 200},
		UnlockHeight: 200,
	},
	{
		ID:           "redemption",
		Name:         "Redenção",
		Description:  "Complete o jogo alcançando o símbolo da reciclagem",
		Icon:         "♻️",
		Criteria:     Criteria{Kind: KindCompletion},
		UnlockHeight: 300,
	},
	{
		ID:           "speed_runner",
		Name:         "Velocista",
		Description:  "Complete o jogo em menos de 5 minutos",
		Icon:         "⚡",
		Criteria:     Criteria{Kind: KindCompletionTime, Threshold: 300},
		UnlockHeight: 300,
	},
	{
		ID:           "persistent",
		Name:         "Persistente",
		Description:  "Jogue 10 partidas",
		Icon:         "💪",
		Criteria:     Criteria{Kind: KindGamesPlayed, Threshold: 10},
		UnlockHeight: 0,
	},
	{
		ID:           "master_jumper",
		Name:         "Mestre dos Saltos",
		Description:  "Complete o jogo 3 vezes",
		Icon:         "👑",
		Criteria:     Criteria{Kind: KindCompletions, Threshold: 3},
		UnlockHeight: 300,
	},
}

// ForHeight returns the height-based definitions reachable at the given
// height, in catalog order.
func ForHeight(height int) []Definition {
	var defs []Definition
	for _, d := range Catalog {
		if d.Criteria.Kind == KindHeight && d.Criteria.Threshold <= height {
			defs = append(defs, d)
		}
	}
	return defs
}

// CompletionAchievements returns the definitions that require a completed run
func CompletionAchievements() []Definition {
	var defs []Definition
	for _, d := range Catalog {
		switch d.Criteria.Kind {
		case KindCompletion, KindCompletionTime, KindCompletions:
			defs = append(defs, d)
		}
	}
	return defs
}

// GamesPlayedAchievements returns the definitions granted for total runs played
func GamesPlayedAchievements() []Definition {
	var defs []Definition
	for _, d := range Catalog {
		if d.Criteria.Kind == KindGamesPlayed {
			defs = append(defs, d)
		}
	}
	return defs
}

// ByID looks up a definition by its catalog id
func ByID(id string) (Definition, bool) {
	for _, d := range Catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}
