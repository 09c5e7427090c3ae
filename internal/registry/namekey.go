package registry

import (
	"fmt"
	"regexp"
	"strings"

	"landcharges/assist/internal/domain"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

var noiseWords = wordSet("AND", "OF", "FOR", "TO", "&")

// commonWords maps each variant spelling to the word stored in the key.
var commonWords = buildCommonWords(map[string][]string{
	"ASS":      {"ASS", "ASSOC", "ASSOCS", "ASSOCIATE", "ASSOCIATED", "ASSOCIATES", "ASSOCIATION", "ASSOCIATIONS"},
	"LD":       {"LD", "LTD", "LIMITED", "CYFYNGEDIG", "CYF", "CCC", "PLC"},
	"SOC":      {"SOC", "SOCS", "SOCY", "SOCYS", "SOCIETY", "SOCIETYS", "SOCIETIES"},
	"ST":       {"ST", "STREET", "SAINT"},
	"CO":       {"CO", "COS", "COY", "COMP", "COYS", "COMPS", "COMPANY", "COMPANIES"},
	"DR":       {"DR", "DOC", "DOCTOR"},
	"BRO":      {"BRO", "BROS", "BROTHER", "BROTHERS"},
	"AND":      {"&", "AND"},
	"CHARITY":  {"CHARITIES"},
	"PROPERTY": {"PROPERTIES"},
	"INDUSTRY": {"INDUSTRIES"},
})

// trailingSWords lose their final S.
var trailingSWords = wordSet("BROKERS", "BUILDERS", "COLLEGES", "COMMISSIONERS", "CONSTRUCTIONS",
	"CONTRACTORS", "DECORATORS", "DEVELOPERS", "DEVELOPMENTS", "ENTERPRISES", "ESTATES", "GARAGES",
	"HOLDINGS", "HOTELS", "INVESTMENTS", "MOTORS", "PRODUCTIONS", "SCHOOLS", "SONS", "STORES",
	"TRUSTS", "WARDENS")

var nonKeyWords = wordSet("BOARD", "GOVERNOR", "GOVENORS", "GUARDIAN", "GUARDIANS", "INCUMBENT",
	"INCORPORATED", "INC", "PROPRIETOR", "PROPRIETORS", "REGISTERED", "TRUSTEE", "TRUSTEES")

var localAuthorityNonKeyWords = wordSet("AND", "&", "AT", "BY", "CITY", "CUM", "DE", "DU", "EN", "IN",
	"LA", "LE", "NEXT", "OF", "ON", "OVER", "OUT", "SEA", "THE", "U", "UNDER", "UPON", "WITH")

var localAuthorityAbbreviations = map[string]string{
	"SAINT":     "ST",
	"SAINTS":    "ST",
	"NORTH":     "N",
	"SOUTH":     "S",
	"WEST":      "W",
	"EAST":      "E",
	"NORTHWEST": "NW",
	"SOUTHWEST": "SW",
	"NORTHEAST": "NE",
	"SOUTHEAST": "SE",
	"SUPER":     "S",
	"SUR":       "S",
}

const nullKey = "NULL KEY"

// NameKey returns the searchable key stored for a party name. Two names
// that should match in a search produce the same key.
func NameKey(name domain.PartyName) (string, error) {
	switch name.Type {
	case domain.NameTypePrivate:
		if name.Private == nil {
			return "", missingForm(name.Type, "private")
		}
		return privateNameKey(*name.Private), nil

	case domain.NameTypeLimitedCompany:
		if name.Company == "" {
			return "", missingForm(name.Type, "company")
		}
		return limitedCompanyKey(name.Company), nil

	case domain.NameTypeCountyCouncil, domain.NameTypeParishCouncil,
		domain.NameTypeRuralCouncil, domain.NameTypeOtherCouncil:
		if name.Local == nil || name.Local.Area == "" {
			return "", missingForm(name.Type, "local.area")
		}
		return localAuthorityKey(name.Local.Area), nil

	case domain.NameTypeDevelopmentCorporation:
		if name.Other == "" {
			return "", missingForm(name.Type, "other")
		}
		return localAuthorityKey(name.Other), nil

	case domain.NameTypeOther:
		if name.Other == "" {
			return "", missingForm(name.Type, "other")
		}
		return alphanumericUpper(name.Other), nil

	case domain.NameTypeComplex:
		if name.Complex == nil || name.Complex.Name == "" {
			return "", missingForm(name.Type, "complex.name")
		}
		return alphanumericUpper(name.Complex.Name), nil
	}

	return "", fmt.Errorf("%w: unknown name type %q", ErrInvalid, name.Type)
}

// NameKeys returns the keys of every name of every party, in order.
func NameKeys(parties []domain.Party) ([]string, error) {
	var keys []string
	for _, party := range parties {
		for _, name := range party.Names {
			key, err := NameKey(name)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func privateNameKey(private domain.PrivateName) string {
	return alphanumericUpper(strings.Join(private.Forenames, "") + private.Surname)
}

func limitedCompanyKey(company string) string {
	words := strings.Split(strings.ToUpper(company), " ")

	for i, word := range words {
		if common, ok := commonWords[word]; ok {
			words[i] = common
		}
		if _, ok := trailingSWords[word]; ok {
			words[i] = word[:len(word)-1]
		}
	}

	if len(words) > 0 && (words[0] == "THE" || words[0] == "MESSRS") {
		words = words[1:]
	}
	if len(words) > 0 && words[len(words)-1] == "THE" {
		words = words[:len(words)-1]
	}

	words = dropWords(words, noiseWords)
	words = dropWords(words, nonKeyWords)

	return nonAlphanumeric.ReplaceAllString(strings.Join(words, " "), "")
}

func localAuthorityKey(area string) string {
	words := dropWords(strings.Split(strings.ToUpper(area), " "), localAuthorityNonKeyWords)
	for i, word := range words {
		if abbr, ok := localAuthorityAbbreviations[word]; ok {
			words[i] = abbr
		}
	}

	key := nonAlphanumeric.ReplaceAllString(strings.Join(words, " "), "")
	if key == "" {
		return nullKey
	}
	return key
}

func alphanumericUpper(s string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToUpper(s), "")
}

func dropWords(words []string, drop map[string]struct{}) []string {
	kept := words[:0:0]
	for _, word := range words {
		if _, ok := drop[word]; !ok {
			kept = append(kept, word)
		}
	}
	return kept
}

func missingForm(nameType, field string) error {
	return fmt.Errorf("%w: name type %q requires %s", ErrInvalid, nameType, field)
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func buildCommonWords(groups map[string][]string) map[string]string {
	lookup := make(map[string]string)
	for common, variants := range groups {
		for _, v := range variants {
			lookup[v] = common
		}
	}
	return lookup
}
