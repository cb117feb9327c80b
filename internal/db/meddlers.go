package db

import (
	"database/sql"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

func init() {
	meddler.Register("address", hexMeddler[common.Address]{parse: common.HexToAddress})
	meddler.Register("hash", hexMeddler[common.Hash]{parse: common.HexToHash})
}

type hexValue interface {
	comparable
	Hex() string
}

// hexMeddler stores go-ethereum fixed size values as hex strings.
// Both T and *T fields are supported; NULL reads as the zero value or a nil pointer.
type hexMeddler[T hexValue] struct {
	parse func(string) T
}

func (m hexMeddler[T]) PreRead(any) (any, error) {
	return new(sql.NullString), nil
}

func (m hexMeddler[T]) PostRead(fieldAddr, scanTarget any) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	switch ptr := fieldAddr.(type) {
	case *T:
		var zero T
		*ptr = zero
		if ns.Valid {
			*ptr = m.parse(ns.String)
		}
	case **T:
		*ptr = nil
		if ns.Valid {
			v := m.parse(ns.String)
			*ptr = &v
		}
	default:
		var zero T
		return fmt.Errorf("expected *%T or **%T, got %T", zero, zero, fieldAddr)
	}

	return nil
}

func (m hexMeddler[T]) PreWrite(field any) (any, error) {
	switch v := field.(type) {
	case T:
		return v.Hex(), nil
	case *T:
		if v == nil {
			return nil, nil
		}
		return (*v).Hex(), nil
	default:
		var zero T
		return nil, fmt.Errorf("expected %T or *%T, got %T", zero, zero, field)
	}
}
