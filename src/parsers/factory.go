package parsers

import (
	"fmt"

	"github.com/username/cryptofolio/src/parsers/gmo"
	"github.com/username/cryptofolio/src/parsers/mercari"
)

// Source identifiers accepted by GetParser.
const (
	SourceGMO     = "gmo"
	SourceMercari = "mercari"
)

func GetParser(source string) (Parser, error) {
	switch source {
	case SourceGMO:
		return gmo.NewParser(), nil
	case SourceMercari:
		return mercari.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}
