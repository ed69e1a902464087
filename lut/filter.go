package lut

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrUnknownFilter is returned for identifiers outside the filter table.
var ErrUnknownFilter = errors.New("lut: unknown filter")

// Filter identifies a colour-grading lookup table.
type Filter string

// None disables colour grading.
const None Filter = ""

// Filters shipped with the application, in designer order.
const (
	Nah                  Filter = "nah"
	Once                 Filter = "once"
	PassingBy            Filter = "passing_by"
	Serenity             Filter = "serenity"
	Solar                Filter = "solar"
	Undeniable           Filter = "undeniable"
	Undeniable2          Filter = "undeniable2"
	YouCanDoIt           Filter = "you_can_do_it"
	Pure                 Filter = "pure"
	Syrah                Filter = "syrah"
	Paper                Filter = "paper"
	Rock                 Filter = "rock"
	Vouzon               Filter = "vouzon"
	Transparency         Filter = "transparency"
	Autumn               Filter = "autumn"
	OneOfUs              Filter = "one_of_us"
	Bourbon              Filter = "bourbon"
	BlackAndWhiteLight   Filter = "black_and_white_light"
	BlackAndWhiteNeutral Filter = "black_and_white_neutral"
	BlackAndWhiteOld     Filter = "black_and_white_old"
)

var table = [...]Filter{
	Nah, Once, PassingBy, Serenity, Solar, Undeniable, Undeniable2, YouCanDoIt,
	Pure, Syrah, Paper, Rock, Vouzon, Transparency, Autumn, OneOfUs, Bourbon,
	BlackAndWhiteLight, BlackAndWhiteNeutral, BlackAndWhiteOld,
}

// labels overrides the title-cased identifier where it reads badly.
var labels = map[Filter]string{
	None:                 "None",
	PassingBy:            "Passing by",
	Undeniable2:          "Undeniable 2",
	YouCanDoIt:           "You can do it",
	OneOfUs:              "One of us",
	BlackAndWhiteLight:   "B&W light",
	BlackAndWhiteNeutral: "B&W neutral",
	BlackAndWhiteOld:     "B&W old",
}

// Filters returns every filter in designer order.
func Filters() []Filter {
	return append([]Filter(nil), table[:]...)
}

// Ordered returns None followed by every filter, the order used by pickers.
func Ordered() []Filter {
	return append([]Filter{None}, table[:]...)
}

// Parse converts an identifier to a Filter. The empty string and "none"
// map to None.
func Parse(s string) (Filter, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "none" {
		return None, nil
	}
	f := Filter(s)
	if !f.Valid() {
		return None, fmt.Errorf("%w: %q", ErrUnknownFilter, s)
	}
	return f, nil
}

// Valid reports whether f is in the filter table. None is not valid.
func (f Filter) Valid() bool {
	for _, t := range table {
		if t == f {
			return true
		}
	}
	return false
}

// AssetPath returns the asset path of the filter's lookup table.
func (f Filter) AssetPath() string {
	return "luts/" + string(f) + ".png"
}

// Label returns the display name of the filter.
func (f Filter) Label() string {
	if l, ok := labels[f]; ok {
		return l
	}
	// Casers are stateful; one per call.
	return cases.Title(language.English).String(strings.ReplaceAll(string(f), "_", " "))
}
