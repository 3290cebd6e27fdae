package catalog

// Building ids for the shipped rule set.
const (
	TownHall   BuildingID = 1
	Farm       BuildingID = 2
	Barracks   BuildingID = 3
	LumberMill BuildingID = 4
	Quarry     BuildingID = 5
	Market     BuildingID = 6
	Wall       BuildingID = 7
	Academy    BuildingID = 8
)

// defaultDurations is the shared upgrade schedule, in seconds, keyed by the
// level being entered. Every building's Nth upgrade takes the same time
// regardless of building type.
var defaultDurations = []int64{
	60,    // level 1
	120,   // level 2
	300,   // level 3
	600,   // level 4
	1200,  // level 5
	1800,  // level 6
	3600,  // level 7
	7200,  // level 8
	10800, // level 9
	14400, // level 10
}

var defaultBuildings = []Building{
	{ID: TownHall, Name: "Town Hall", MaxLevel: 10, UpgradeCost: 500},
	{ID: Farm, Name: "Farm", MaxLevel: 10, UpgradeCost: 200},
	{ID: Barracks, Name: "Barracks", MaxLevel: 8, UpgradeCost: 400,
		Requires: Prerequisite{Building: TownHall, MinLevel: 2}},
	{ID: LumberMill, Name: "Lumber Mill", MaxLevel: 10, UpgradeCost: 250},
	{ID: Quarry, Name: "Quarry", MaxLevel: 10, UpgradeCost: 250},
	{ID: Market, Name: "Market", MaxLevel: 6, UpgradeCost: 600,
		Requires: Prerequisite{Building: TownHall, MinLevel: 3}},
	{ID: Wall, Name: "Wall", MaxLevel: 8, UpgradeCost: 450,
		Requires: Prerequisite{Building: Quarry, MinLevel: 1}},
	{ID: Academy, Name: "Academy", MaxLevel: 5, UpgradeCost: 800,
		Requires: Prerequisite{Building: TownHall, MinLevel: 5}},
}

// Default returns the built-in rule set.
func Default() *Catalog {
	c, err := New(defaultBuildings, defaultDurations)
	if err != nil {
		// The built-in tables are validated by tests; a failure here is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return c
}
