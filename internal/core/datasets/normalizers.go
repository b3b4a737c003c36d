package datasets

import (
	"strings"

	"github.com/JonMunkholm/matriculas/internal/core"
)

// UFs maps Brazilian state names to their abbreviations.
var UFs = map[string]string{
	"acre":                "AC",
	"alagoas":             "AL",
	"amapá":               "AP",
	"amazonas":            "AM",
	"bahia":               "BA",
	"ceará":               "CE",
	"distrito federal":    "DF",
	"espírito santo":      "ES",
	"goiás":               "GO",
	"maranhão":            "MA",
	"mato grosso":         "MT",
	"mato grosso do sul":  "MS",
	"minas gerais":        "MG",
	"pará":                "PA",
	"paraíba":             "PB",
	"paraná":              "PR",
	"pernambuco":          "PE",
	"piauí":               "PI",
	"rio de janeiro":      "RJ",
	"rio grande do norte": "RN",
	"rio grande do sul":   "RS",
	"rondônia":            "RO",
	"roraima":             "RR",
	"santa catarina":      "SC",
	"são paulo":           "SP",
	"sergipe":             "SE",
	"tocantins":           "TO",
}

// Networks maps the census TP_DEPENDENCIA codes to network names.
var Networks = map[int64]string{
	1: "Federal",
	2: "Estadual",
	3: "Municipal",
	4: "Privada",
}

// NormalizeUF converts state names to their 2-letter abbreviations.
// If the input is already an abbreviation or not recognized, returns as-is.
func NormalizeUF(s string) string {
	s = strings.TrimSpace(s)
	sLower := strings.ToLower(s)

	// Check if it's a full name
	if code, ok := UFs[sLower]; ok {
		return code
	}

	// Check if already a valid 2-letter code
	sUpper := strings.ToUpper(s)
	for _, code := range UFs {
		if sUpper == code {
			return code
		}
	}

	// Fallback: return original
	return s
}

// NormalizeNetwork converts a numeric network code to its name.
// Names and unknown codes pass through unchanged.
func NormalizeNetwork(v core.Value) core.Value {
	if code, ok := core.ToInt(v); ok {
		if name, ok := Networks[code]; ok {
			return name
		}
		return v
	}
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(core.ToString(v))
	for _, name := range Networks {
		if strings.EqualFold(s, name) {
			return name
		}
	}
	return s
}

func normalizeUFValue(v core.Value) core.Value {
	if v == nil {
		return nil
	}
	return NormalizeUF(core.ToString(v))
}

// normalizeYear turns "2021" or 2021.0 into int64 2021.
func normalizeYear(v core.Value) core.Value {
	if y, ok := core.ToInt(v); ok {
		return y
	}
	return v
}

// commonNormalizers apply to every aggregation level.
func commonNormalizers() map[string]core.NormalizeFunc {
	return map[string]core.NormalizeFunc{
		ColYear:    normalizeYear,
		ColNetwork: NormalizeNetwork,
		ColUF:      normalizeUFValue,
	}
}
