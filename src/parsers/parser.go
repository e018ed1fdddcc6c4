package parsers

import (
	"io"

	"github.com/username/cryptofolio/src/models"
)

// Parser normalizes one source's trade-history file into the canonical record
// shape. Parsers fail only on unreadable files; individual bad fields degrade
// to null on the record instead.
type Parser interface {
	Parse(file io.Reader) ([]models.TransactionRecord, error)
}
