// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

// Package origin classifies who is calling into the bridge and decides whether
// they may. Policies are plain values chosen per deployment.
package origin

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindRoot
	KindSigned
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindSigned:
		return "signed"
	default:
		return "none"
	}
}

// Origin is the dispatch origin of a call. Account is only meaningful for signed origins.
type Origin struct {
	Kind    Kind
	Account common.Address
}

func Root() Origin {
	return Origin{Kind: KindRoot}
}

func Signed(account common.Address) Origin {
	return Origin{Kind: KindSigned, Account: account}
}

func None() Origin {
	return Origin{}
}

func (o Origin) String() string {
	if o.Kind == KindSigned {
		return fmt.Sprintf("signed(%v)", o.Account)
	}
	return o.Kind.String()
}

var ErrBadOrigin = errors.New("bad origin")

// Authorizer rejects origins that may not perform the guarded call.
type Authorizer interface {
	EnsureOrigin(o Origin) error
}

// AuthorizerFunc adapts a predicate into an Authorizer.
type AuthorizerFunc func(o Origin) bool

func (f AuthorizerFunc) EnsureOrigin(o Origin) error {
	if !f(o) {
		return fmt.Errorf("%w: %v", ErrBadOrigin, o)
	}
	return nil
}

// EnsureRoot only admits the root origin.
type EnsureRoot struct{}

func (EnsureRoot) EnsureOrigin(o Origin) error {
	if o.Kind != KindRoot {
		return fmt.Errorf("%w: %v is not root", ErrBadOrigin, o)
	}
	return nil
}

// EnsureSignedBy admits calls signed by one fixed account.
type EnsureSignedBy struct {
	Account common.Address
}

func (e EnsureSignedBy) EnsureOrigin(o Origin) error {
	if o.Kind != KindSigned || o.Account != e.Account {
		return fmt.Errorf("%w: %v is not signed by %v", ErrBadOrigin, o, e.Account)
	}
	return nil
}

// MemberSet is satisfied by *addressSet.AddressSet.
type MemberSet interface {
	IsMember(addr common.Address) (bool, error)
}

// EnsureMember admits calls signed by any member of a set, for example the chain owners.
type EnsureMember struct {
	Set MemberSet
}

func (e EnsureMember) EnsureOrigin(o Origin) error {
	if o.Kind != KindSigned {
		return fmt.Errorf("%w: %v is not signed", ErrBadOrigin, o)
	}
	member, err := e.Set.IsMember(o.Account)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("%w: %v is not a member", ErrBadOrigin, o.Account)
	}
	return nil
}

// EnsureAny admits an origin accepted by at least one of its policies.
type EnsureAny []Authorizer

func (e EnsureAny) EnsureOrigin(o Origin) error {
	var errs []error
	for _, authorizer := range e {
		err := authorizer.EnsureOrigin(o)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrBadOrigin) {
			return err
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return fmt.Errorf("%w: no policy configured", ErrBadOrigin)
	}
	return errors.Join(errs...)
}
