package settings

// Translator maps an English label to the display language.
type Translator func(label string) string

var telugu = map[string]string{
	"Transactions Report for": "లావాదేవీల నివేదిక",
	"Total Given":             "మొత్తం ఇచ్చినది",
	"Total Taken":             "మొత్తం తీసుకున్నది",
	"Net Amount":              "నికర మొత్తం",
	"Given":                   "ఇచ్చినది",
	"Taken":                   "తీసుకున్నది",
	"Amount":                  "మొత్తం",
	"Interest Rate":           "వడ్డీ రేటు",
	"Date":                    "తేదీ",
	"Current Amount":          "ప్రస్తుత మొత్తం",
	"Status":                  "స్థితి",
	"Settled":                 "పరిష్కరించబడింది",
	"Pending":                 "పెండింగ్",
	"Settled Date":            "పరిష్కరించిన తేదీ",
	"Remarks":                 "వ్యాఖ్యలు",
	"Days Elapsed":            "గడిచిన రోజులు",
}

// TranslatorFor returns the translator for lang. Unknown labels pass through.
func TranslatorFor(lang Language) Translator {
	if lang != Telugu {
		return func(label string) string { return label }
	}
	return func(label string) string {
		if t, ok := telugu[label]; ok {
			return t
		}
		return label
	}
}
