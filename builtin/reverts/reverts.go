// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// Kind classifies why a built-in call reverted.
type Kind uint8

const (
	Unknown Kind = iota
	// Authorization the caller is not allowed to invoke the operation.
	Authorization
	// Precondition the contract is not in a state that allows the operation.
	Precondition
	// Validation the arguments are malformed or collide with existing state.
	Validation
	// Economic the operation would break a stake or voting power limit.
	Economic
)

func (k Kind) String() string {
	switch k {
	case Authorization:
		return "authorization"
	case Precondition:
		return "precondition"
	case Validation:
		return "validation"
	case Economic:
		return "economic"
	default:
		return "unknown"
	}
}

// ErrRevert is a domain failure of a built-in contract. The whole enclosing call is reverted.
type ErrRevert struct {
	kind    Kind
	name    string
	message string
}

func New(kind Kind, name, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		name:    name,
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.name + ": " + e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func (e *ErrRevert) Name() string {
	return e.name
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of the revert wrapped by err, or Unknown.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return Unknown
}

// NameOf returns the name of the revert wrapped by err, or an empty string.
func NameOf(err error) string {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.name
	}
	return ""
}
