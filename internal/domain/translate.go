package domain

// CountryNames is a read-only lookup from source-language country labels to
// canonical English names.
type CountryNames struct {
	byName    map[string]string
	canonical map[string]struct{}
}

// NewCountryNames builds a lookup from a source → canonical table.
// The table is copied; later changes to it are not observed.
func NewCountryNames(table map[string]string) *CountryNames {
	n := &CountryNames{
		byName:    make(map[string]string, len(table)),
		canonical: make(map[string]struct{}, len(table)),
	}
	for src, dst := range table {
		n.byName[src] = dst
		n.canonical[dst] = struct{}{}
	}
	return n
}

// Translate returns the canonical name for name, or name unchanged when the
// table has no entry for it.
func (n *CountryNames) Translate(name string) string {
	if dst, ok := n.byName[name]; ok {
		return dst
	}
	return name
}

// Lookup is Translate plus whether name is known, either as a source label
// or as a canonical name already.
func (n *CountryNames) Lookup(name string) (string, bool) {
	if dst, ok := n.byName[name]; ok {
		return dst, true
	}
	_, ok := n.canonical[name]
	return name, ok
}

// Len returns the number of source labels in the table.
func (n *CountryNames) Len() int {
	return len(n.byName)
}

var germanCountryNames = NewCountryNames(germanToEnglish)

// GermanCountryNames returns the built-in German → English table.
func GermanCountryNames() *CountryNames {
	return germanCountryNames
}

// TranslateCountry translates name with the built-in German table.
func TranslateCountry(name string) string {
	return germanCountryNames.Translate(name)
}

// germanToEnglish covers every country of the WorldRiskReport. Names that are
// spelled the same in both languages map to themselves so they are not
// reported as unmapped.
var germanToEnglish = map[string]string{
	"Afghanistan":                        "Afghanistan",
	"Ägypten":                            "Egypt",
	"Albanien":                           "Albania",
	"Algerien":                           "Algeria",
	"Andorra":                            "Andorra",
	"Angola":                             "Angola",
	"Antigua und Barbuda":                "Antigua and Barbuda",
	"Äquatorialguinea":                   "Equatorial Guinea",
	"Argentinien":                        "Argentina",
	"Armenien":                           "Armenia",
	"Aserbaidschan":                      "Azerbaijan",
	"Äthiopien":                          "Ethiopia",
	"Australien":                         "Australia",
	"Bahamas":                            "Bahamas",
	"Bahrain":                            "Bahrain",
	"Bangladesch":                        "Bangladesh",
	"Barbados":                           "Barbados",
	"Belarus":                            "Belarus",
	"Weißrussland":                       "Belarus",
	"Belgien":                            "Belgium",
	"Belize":                             "Belize",
	"Benin":                              "Benin",
	"Bhutan":                             "Bhutan",
	"Bolivien":                           "Bolivia",
	"Bosnien und Herzegowina":            "Bosnia and Herzegovina",
	"Botsuana":                           "Botswana",
	"Brasilien":                          "Brazil",
	"Brunei Darussalam":                  "Brunei",
	"Brunei":                             "Brunei",
	"Bulgarien":                          "Bulgaria",
	"Burkina Faso":                       "Burkina Faso",
	"Burundi":                            "Burundi",
	"Chile":                              "Chile",
	"China":                              "China",
	"Costa Rica":                         "Costa Rica",
	"Côte d'Ivoire":                      "Ivory Coast",
	"Elfenbeinküste":                     "Ivory Coast",
	"Dänemark":                           "Denmark",
	"Deutschland":                        "Germany",
	"Dominica":                           "Dominica",
	"Dominikanische Republik":            "Dominican Republic",
	"Dschibuti":                          "Djibouti",
	"Ecuador":                            "Ecuador",
	"El Salvador":                        "El Salvador",
	"Eritrea":                            "Eritrea",
	"Estland":                            "Estonia",
	"Eswatini":                           "Eswatini",
	"Fidschi":                            "Fiji",
	"Finnland":                           "Finland",
	"Frankreich":                         "France",
	"Gabun":                              "Gabon",
	"Gambia":                             "Gambia",
	"Georgien":                           "Georgia",
	"Ghana":                              "Ghana",
	"Grenada":                            "Grenada",
	"Griechenland":                       "Greece",
	"Guatemala":                          "Guatemala",
	"Guinea":                             "Guinea",
	"Guinea-Bissau":                      "Guinea-Bissau",
	"Guyana":                             "Guyana",
	"Haiti":                              "Haiti",
	"Honduras":                           "Honduras",
	"Indien":                             "India",
	"Indonesien":                         "Indonesia",
	"Irak":                               "Iraq",
	"Iran":                               "Iran",
	"Irland":                             "Ireland",
	"Island":                             "Iceland",
	"Israel":                             "Israel",
	"Italien":                            "Italy",
	"Jamaika":                            "Jamaica",
	"Japan":                              "Japan",
	"Jemen":                              "Yemen",
	"Jordanien":                          "Jordan",
	"Kambodscha":                         "Cambodia",
	"Kamerun":                            "Cameroon",
	"Kanada":                             "Canada",
	"Kap Verde":                          "Cape Verde",
	"Cabo Verde":                         "Cape Verde",
	"Kasachstan":                         "Kazakhstan",
	"Katar":                              "Qatar",
	"Kenia":                              "Kenya",
	"Kirgisistan":                        "Kyrgyzstan",
	"Kiribati":                           "Kiribati",
	"Kolumbien":                          "Colombia",
	"Komoren":                            "Comoros",
	"Kongo":                              "Republic of the Congo",
	"Kongo, Republik":                    "Republic of the Congo",
	"Kongo, Demokratische Republik":      "Democratic Republic of the Congo",
	"Demokratische Republik Kongo":       "Democratic Republic of the Congo",
	"Korea, Republik":                    "South Korea",
	"Südkorea":                           "South Korea",
	"Korea, Demokratische Volksrepublik": "North Korea",
	"Nordkorea":                          "North Korea",
	"Kosovo":                             "Kosovo",
	"Kroatien":                           "Croatia",
	"Kuba":                               "Cuba",
	"Kuwait":                             "Kuwait",
	"Laos":                               "Laos",
	"Lesotho":                            "Lesotho",
	"Lettland":                           "Latvia",
	"Libanon":                            "Lebanon",
	"Liberia":                            "Liberia",
	"Libyen":                             "Libya",
	"Liechtenstein":                      "Liechtenstein",
	"Litauen":                            "Lithuania",
	"Luxemburg":                          "Luxembourg",
	"Madagaskar":                         "Madagascar",
	"Malawi":                             "Malawi",
	"Malaysia":                           "Malaysia",
	"Malediven":                          "Maldives",
	"Mali":                               "Mali",
	"Malta":                              "Malta",
	"Marokko":                            "Morocco",
	"Marshallinseln":                     "Marshall Islands",
	"Mauretanien":                        "Mauritania",
	"Mauritius":                          "Mauritius",
	"Mexiko":                             "Mexico",
	"Mikronesien":                        "Micronesia",
	"Moldau":                             "Moldova",
	"Moldawien":                          "Moldova",
	"Monaco":                             "Monaco",
	"Mongolei":                           "Mongolia",
	"Montenegro":                         "Montenegro",
	"Mosambik":                           "Mozambique",
	"Myanmar":                            "Myanmar",
	"Namibia":                            "Namibia",
	"Nauru":                              "Nauru",
	"Nepal":                              "Nepal",
	"Neuseeland":                         "New Zealand",
	"Nicaragua":                          "Nicaragua",
	"Niederlande":                        "Netherlands",
	"Niger":                              "Niger",
	"Nigeria":                            "Nigeria",
	"Nordmazedonien":                     "North Macedonia",
	"Norwegen":                           "Norway",
	"Oman":                               "Oman",
	"Österreich":                         "Austria",
	"Pakistan":                           "Pakistan",
	"Palau":                              "Palau",
	"Panama":                             "Panama",
	"Papua-Neuguinea":                    "Papua New Guinea",
	"Paraguay":                           "Paraguay",
	"Peru":                               "Peru",
	"Philippinen":                        "Philippines",
	"Polen":                              "Poland",
	"Portugal":                           "Portugal",
	"Ruanda":                             "Rwanda",
	"Rumänien":                           "Romania",
	"Russland":                           "Russia",
	"Russische Föderation":               "Russia",
	"Salomonen":                          "Solomon Islands",
	"Sambia":                             "Zambia",
	"Samoa":                              "Samoa",
	"San Marino":                         "San Marino",
	"São Tomé und Príncipe":              "Sao Tome and Principe",
	"Saudi-Arabien":                      "Saudi Arabia",
	"Schweden":                           "Sweden",
	"Schweiz":                            "Switzerland",
	"Senegal":                            "Senegal",
	"Serbien":                            "Serbia",
	"Seychellen":                         "Seychelles",
	"Sierra Leone":                       "Sierra Leone",
	"Simbabwe":                           "Zimbabwe",
	"Singapur":                           "Singapore",
	"Slowakei":                           "Slovakia",
	"Slowenien":                          "Slovenia",
	"Somalia":                            "Somalia",
	"Spanien":                            "Spain",
	"Sri Lanka":                          "Sri Lanka",
	"St. Kitts und Nevis":                "Saint Kitts and Nevis",
	"St. Lucia":                          "Saint Lucia",
	"St. Vincent und die Grenadinen":     "Saint Vincent and the Grenadines",
	"Südafrika":                          "South Africa",
	"Sudan":                              "Sudan",
	"Südsudan":                           "South Sudan",
	"Suriname":                           "Suriname",
	"Syrien":                             "Syria",
	"Tadschikistan":                      "Tajikistan",
	"Tansania":                           "Tanzania",
	"Thailand":                           "Thailand",
	"Timor-Leste":                        "East Timor",
	"Osttimor":                           "East Timor",
	"Togo":                               "Togo",
	"Tonga":                              "Tonga",
	"Trinidad und Tobago":                "Trinidad and Tobago",
	"Tschad":                             "Chad",
	"Tschechien":                         "Czech Republic",
	"Tunesien":                           "Tunisia",
	"Türkei":                             "Turkey",
	"Turkmenistan":                       "Turkmenistan",
	"Tuvalu":                             "Tuvalu",
	"Uganda":                             "Uganda",
	"Ukraine":                            "Ukraine",
	"Ungarn":                             "Hungary",
	"Uruguay":                            "Uruguay",
	"Usbekistan":                         "Uzbekistan",
	"Vanuatu":                            "Vanuatu",
	"Venezuela":                          "Venezuela",
	"Vereinigte Arabische Emirate":       "United Arab Emirates",
	"Vereinigte Staaten":                 "United States of America",
	"Vereinigte Staaten von Amerika":     "United States of America",
	"Vereinigtes Königreich":             "United Kingdom",
	"Großbritannien":                     "United Kingdom",
	"Vietnam":                            "Vietnam",
	"Zentralafrikanische Republik":       "Central African Republic",
	"Zypern":                             "Cyprus",
}
