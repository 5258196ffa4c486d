package achievements

// ID identifies an achievement.
type ID string

const (
	FirstDevice      ID = "first-device"
	Decorator        ID = "decorator"
	Peacemaker       ID = "peacemaker"
	CrisisVeteran    ID = "crisis-veteran"
	Graduate         ID = "graduate"
	ScenarioChampion ID = "scenario-champion"
	Storyteller      ID = "storyteller"
)

// AllIDs returns all achievements in display order.
func AllIDs() []ID {
	return []ID{FirstDevice, Decorator, Peacemaker, CrisisVeteran, Graduate, ScenarioChampion, Storyteller}
}

// DisplayName returns a human-readable label for the achievement.
func (id ID) DisplayName() string {
	switch id {
	case FirstDevice:
		return "Inventor"
	case Decorator:
		return "Decorator"
	case Peacemaker:
		return "Peacemaker"
	case CrisisVeteran:
		return "Crisis Veteran"
	case Graduate:
		return "Graduate"
	case ScenarioChampion:
		return "Scenario Champion"
	case Storyteller:
		return "Storyteller"
	default:
		return string(id)
	}
}

// Icon returns the display icon for the achievement.
func (id ID) Icon() string {
	switch id {
	case FirstDevice:
		return "🔧"
	case Decorator:
		return "🛋"
	case Peacemaker:
		return "🕊"
	case CrisisVeteran:
		return "🔥"
	case Graduate:
		return "🎓"
	case ScenarioChampion:
		return "🏆"
	case Storyteller:
		return "📖"
	default:
		return "✦"
	}
}
