package matching

// homeRegions maps a three-digit zip prefix to the city names that count as
// the candidate's home region. The board serves the Central Valley, so the
// table covers its metro areas; unknown prefixes simply never fire the
// proximity rule.
var homeRegions = map[string][]string{
	// Modesto/Merced metro (zip 953xx spans both)
	"953": {"Modesto", "Ceres", "Turlock", "Riverbank", "Oakdale", "Patterson", "Salida", "Merced", "Atwater", "Los Banos"},
	// Stockton metro
	"952": {"Stockton", "Lodi", "Tracy", "Manteca", "Lathrop", "Ripon"},
	// Fresno metro
	"936": {"Fresno", "Clovis", "Sanger", "Selma"},
	"937": {"Fresno", "Clovis", "Madera", "Reedley"},
	// Bakersfield metro
	"933": {"Bakersfield", "Delano", "Shafter", "Wasco"},
	// Sacramento south suburbs
	"956": {"Sacramento", "Elk Grove", "Galt", "Rancho Cordova"},
	"957": {"Sacramento", "Elk Grove", "Folsom"},
}

// regionCities returns the home-region city names for a zip code, or nil when
// the zip is too short or outside the served regions.
func regionCities(zip string) []string {
	if len(zip) < 3 {
		return nil
	}
	return homeRegions[zip[:3]]
}
