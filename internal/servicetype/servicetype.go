// Package servicetype enumerates the subscription products a client can hold.
package servicetype

import (
	"errors"
	"strings"
)

type Type string

const (
	Internet Type = "internet"
	Cable    Type = "cable"
)

var ErrInvalid = errors.New("invalid_service_type")

func (t Type) Valid() bool {
	return t == Internet || t == Cable
}

func Parse(value string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(value)))
	if !t.Valid() {
		return "", ErrInvalid
	}
	return t, nil
}
