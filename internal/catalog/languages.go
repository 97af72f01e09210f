package catalog

// artistLanguages maps known catalog artists to their language category.
// Artists not listed fall into "Other".
var artistLanguages = map[string]string{
	"Sachin-Jigar":         "Hindi",
	"The Weeknd":           "English",
	"Udit Narayan":         "Hindi",
	"Atif Aslam":           "Hindi",
	"Taylor Swift":         "English",
	"Karan Aujla":          "Punjabi",
	"Drake":                "English",
	"Tanishk Bagchi":       "Hindi",
	"Diljit Dosanjh":       "Punjabi",
	"Masoom Sharma":        "Haryanvi",
	"Bruno Mars":           "English",
	"Vishal Mishra":        "Hindi",
	"G. V. Prakash":        "Tamil",
	"SZA":                  "English",
	"Sidhu Moose Wala":     "Punjabi",
	"Billie Eilish":        "English",
	"Rahat Fateh Ali Khan": "Hindi",
	"Lady Gaga":            "English",
	"Darshan Raval":        "Hindi",
	"Sachet Tandon":        "Hindi",
	"Manoj Muntashir":      "Hindi",
	"Pawan Singh":          "Bhojpuri",
	"Gur Sidhu":            "Punjabi",
	"Jimin":                "English",
	"Arjan Dhillon":        "Punjabi",
	"AP Dhillon":           "Punjabi",
	"Javed Ali":            "Hindi",
	"Justin Bieber":        "English",
	"Lana Del Rey":         "English",
	"Thaman S":             "Telugu",
	"Cheema Y":             "Punjabi",
	"Jaani":                "Hindi",
	"Ariana Grande":        "English",
}

// LanguageFor returns the language category for an artist, or "Other" when
// the artist is not in the known set.
func LanguageFor(artist string) string {
	if lang, ok := artistLanguages[artist]; ok {
		return lang
	}
	return "Other"
}
