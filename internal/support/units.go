package support

import (
	"strings"

	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/mcontext"
)

// unitSynonyms maps every spelling a `worlds` command accepts to its
// canonical WorldUnit tag.
var unitSynonyms = map[string]mcontext.WorldUnit{
	"m":       mcontext.UnitMetres,
	"metre":   mcontext.UnitMetres,
	"metres":  mcontext.UnitMetres,
	"meter":   mcontext.UnitMetres,
	"meters":  mcontext.UnitMetres,
	"ft":      mcontext.UnitFeet,
	"foot":    mcontext.UnitFeet,
	"feet":    mcontext.UnitFeet,
	"deg":     mcontext.UnitDegrees,
	"degree":  mcontext.UnitDegrees,
	"degrees": mcontext.UnitDegrees,
	"latlong": mcontext.UnitDegrees,
}

// ResolveWorldUnit looks up a world-unit synonym, case-insensitively.
func ResolveWorldUnit(name string) (mcontext.WorldUnit, error) {
	u, ok := unitSynonyms[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, mapyruserr.Newf(mapyruserr.InvalidWorldUnits, "unrecognised world unit %q", name)
	}
	return u, nil
}
