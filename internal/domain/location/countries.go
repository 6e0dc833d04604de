package location

// countryGroup ties a canonical country label to the raw names that
// normalize to it and to the spellings found verbatim in the profile store.
type countryGroup struct {
	canonical string
	// aliases are lower-case, trimmed match keys.
	aliases []string
	// spellings always start with the canonical label.
	spellings []string
}

var countryGroups = []countryGroup{
	{
		canonical: "Turkey",
		aliases:   []string{"turkey", "türkiye", "turkiye", "tr"},
		spellings: []string{"Turkey", "Türkiye", "Turkiye", "turkey", "türkiye", "turkiye"},
	},
	{
		canonical: "United States",
		aliases: []string{"usa", "united states", "united states of america", "amerika birleşik devletleri",
			"amerika birlesik devletleri", "us", "u.s.a.", "u.s."},
		spellings: []string{"United States", "USA", "United States of America", "Amerika Birleşik Devletleri",
			"Amerika Birlesik Devletleri", "US", "U.S.A.", "U.S."},
	},
	{
		canonical: "United Kingdom",
		aliases:   []string{"uk", "united kingdom", "birleşik krallık", "birlesik krallik", "great britain", "england"},
		spellings: []string{"United Kingdom", "UK", "Birleşik Krallık", "Birlesik Krallik", "Great Britain", "England"},
	},
	{
		canonical: "Germany",
		aliases:   []string{"germany", "deutschland", "almanya", "de"},
		spellings: []string{"Germany", "Deutschland", "Almanya"},
	},
	{
		canonical: "France",
		aliases:   []string{"france", "fransa", "fr"},
		spellings: []string{"France", "Fransa"},
	},
	{
		canonical: "Spain",
		aliases:   []string{"spain", "españa", "ispanya", "es"},
		spellings: []string{"Spain", "España", "Ispanya"},
	},
	{
		canonical: "Italy",
		aliases:   []string{"italy", "italia", "italya", "it"},
		spellings: []string{"Italy", "Italia", "Italya"},
	},
	{
		canonical: "Netherlands",
		aliases:   []string{"netherlands", "holland", "hollanda", "nl"},
		spellings: []string{"Netherlands", "Holland", "Hollanda"},
	},
	{
		canonical: "Greece",
		aliases:   []string{"greece", "yunanistan", "gr"},
		spellings: []string{"Greece", "Yunanistan"},
	},
	{
		canonical: "Canada",
		aliases:   []string{"canada", "kanada", "ca"},
		spellings: []string{"Canada", "Kanada"},
	},
	{
		canonical: "Australia",
		aliases:   []string{"australia", "avustralya", "au"},
		spellings: []string{"Australia", "Avustralya"},
	},
	{
		canonical: "Brazil",
		aliases:   []string{"brazil", "brasil", "brezilya", "br"},
		spellings: []string{"Brazil", "Brasil", "Brezilya"},
	},
}

// turkishSpellings maps English country names to the ASCII Turkish
// spelling used by profile rows entered through the Turkish UI.
var turkishSpellings = map[string]string{
	"Turkey":               "Turkiye",
	"United States":        "Amerika Birlesik Devletleri",
	"United Kingdom":       "Birlesik Krallik",
	"Germany":              "Almanya",
	"France":               "Fransa",
	"Italy":                "Italya",
	"Spain":                "Ispanya",
	"Netherlands":          "Hollanda",
	"Belgium":              "Belcika",
	"Greece":               "Yunanistan",
	"Bulgaria":             "Bulgaristan",
	"Romania":              "Romanya",
	"Russia":               "Rusya",
	"Ukraine":              "Ukrayna",
	"Poland":               "Polonya",
	"Czech Republic":       "Cek Cumhuriyeti",
	"Austria":              "Avusturya",
	"Switzerland":          "Isvicre",
	"Sweden":               "Isvec",
	"Norway":               "Norvec",
	"Denmark":              "Danimarka",
	"Finland":              "Finlandiya",
	"Portugal":             "Portekiz",
	"Ireland":              "Irlanda",
	"Canada":               "Kanada",
	"Australia":            "Avustralya",
	"New Zealand":          "Yeni Zelanda",
	"Japan":                "Japonya",
	"China":                "Cin",
	"India":                "Hindistan",
	"Brazil":               "Brezilya",
	"Argentina":            "Arjantin",
	"Mexico":               "Meksika",
	"South Africa":         "Guney Afrika",
	"Egypt":                "Misir",
	"Saudi Arabia":         "Suudi Arabistan",
	"United Arab Emirates": "Birlesik Arap Emirlikleri",
	"Israel":               "Israil",
	"Iran":                 "Iran",
	"Iraq":                 "Irak",
	"Syria":                "Suriye",
	"Lebanon":              "Lubnan",
	"Jordan":               "Urdun",
	"Cyprus":               "Kibris",
	"Azerbaijan":           "Azerbaycan",
	"Georgia":              "Gurcistan",
	"Armenia":              "Ermenistan",
}

// Indexes are built once at package init and only read afterwards.
var (
	aliasIndex     = buildAliasIndex(countryGroups)
	spellingIndex  = buildSpellingIndex(countryGroups)
	turkishByLower = buildLowerIndex(turkishSpellings)
)

func buildAliasIndex(groups []countryGroup) map[string]string {
	idx := make(map[string]string)
	for _, g := range groups {
		for _, a := range g.aliases {
			idx[a] = g.canonical
		}
	}
	return idx
}

func buildSpellingIndex(groups []countryGroup) map[string][]string {
	idx := make(map[string][]string, len(groups))
	for _, g := range groups {
		idx[g.canonical] = g.spellings
	}
	return idx
}

func buildLowerIndex(m map[string]string) map[string]string {
	idx := make(map[string]string, len(m))
	for en, local := range m {
		idx[foldKey(en)] = local
	}
	return idx
}

// Canonicals lists every country label with a curated synonym group.
func Canonicals() []string {
	out := make([]string, 0, len(countryGroups))
	for _, g := range countryGroups {
		out = append(out, g.canonical)
	}
	return out
}

// Aliases lists every raw spelling the normalizer recognizes.
func Aliases() []string {
	out := make([]string, 0, len(aliasIndex))
	for _, g := range countryGroups {
		out = append(out, g.aliases...)
	}
	return out
}
