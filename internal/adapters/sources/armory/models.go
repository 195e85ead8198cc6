package armory

// wire models for the profile provider; only the fields we read

type profileDoc struct {
	AverageItemLevel float64 `json:"average_item_level"`
	CharacterClass   struct {
		Name string `json:"name"`
	} `json:"character_class"`
	ActiveSpec struct {
		Name string `json:"name"`
	} `json:"active_spec"`
}

type mediaDoc struct {
	Assets []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"assets"`
}

type mountsDoc struct {
	Mounts []struct {
		Mount struct {
			Name string `json:"name"`
		} `json:"mount"`
	} `json:"mounts"`
}

type petsDoc struct {
	Pets []struct {
		Name string `json:"name"`
	} `json:"pets"`
}

type bracketDoc struct {
	Rating int `json:"rating"`
}

type reputationsDoc struct {
	Reputations []struct {
		Faction struct {
			Name string `json:"name"`
		} `json:"faction"`
		Standing struct {
			Name  string `json:"name"`
			Value int    `json:"value"`
			Max   int    `json:"max"`
		} `json:"standing"`
	} `json:"reputations"`
}

type encountersDoc struct {
	Expansions []struct {
		Instances []struct {
			Instance struct {
				Name string `json:"name"`
			} `json:"instance"`
			Modes []struct {
				Difficulty struct {
					Type string `json:"type"`
					Name string `json:"name"`
				} `json:"difficulty"`
				Progress struct {
					Encounters []struct {
						Encounter struct {
							Name string `json:"name"`
						} `json:"encounter"`
						CompletedCount int `json:"completed_count"`
					} `json:"encounters"`
				} `json:"progress"`
			} `json:"modes"`
		} `json:"instances"`
	} `json:"expansions"`
}
