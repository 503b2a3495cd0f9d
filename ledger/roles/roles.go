// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package roles

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/state"
)

// Roles is the role registry: per-role membership kept as a doubly-linked
// list so members can be enumerated without scanning.
type Roles struct {
	addr  accrete.Address
	state *state.State
}

// New creates a roles registry instance.
func New(addr accrete.Address, st *state.State) *Roles {
	return &Roles{addr, st}
}

func entryKey(role accrete.Bytes32, member accrete.Address) accrete.Bytes32 {
	return accrete.Blake2b(role.Bytes(), member.Bytes(), []byte("entry"))
}

func headKey(role accrete.Bytes32) accrete.Bytes32 {
	return accrete.Blake2b(role.Bytes(), []byte("head"))
}

func tailKey(role accrete.Bytes32) accrete.Bytes32 {
	return accrete.Blake2b(role.Bytes(), []byte("tail"))
}

func (r *Roles) getEntry(role accrete.Bytes32, member accrete.Address) (*entry, error) {
	var e entry
	if err := r.state.GetStructuredStorage(r.addr, entryKey(role, member), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Roles) setEntry(role accrete.Bytes32, member accrete.Address, e *entry) error {
	return r.state.SetStructuredStorage(r.addr, entryKey(role, member), e)
}

func (r *Roles) getAddressPtr(key accrete.Bytes32) (addr *accrete.Address, err error) {
	err = r.state.DecodeStorage(r.addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &addr)
	})
	return
}

func (r *Roles) setAddressPtr(key accrete.Bytes32, addr *accrete.Address) error {
	return r.state.EncodeStorage(r.addr, key, func() ([]byte, error) {
		if addr == nil {
			return nil, nil
		}
		return rlp.EncodeToBytes(addr)
	})
}

// Has returns whether member holds the role.
func (r *Roles) Has(role accrete.Bytes32, member accrete.Address) (bool, error) {
	e, err := r.getEntry(role, member)
	if err != nil {
		return false, err
	}
	return e.Listed, nil
}

// Grant adds member to the role.
// Returns false without effect if already granted.
func (r *Roles) Grant(role accrete.Bytes32, member accrete.Address) (bool, error) {
	e, err := r.getEntry(role, member)
	if err != nil {
		return false, err
	}
	if e.Listed {
		return false, nil
	}

	e.Listed = true

	tailPtr, err := r.getAddressPtr(tailKey(role))
	if err != nil {
		return false, err
	}
	e.Prev = tailPtr

	if err := r.setAddressPtr(tailKey(role), &member); err != nil {
		return false, err
	}
	if tailPtr == nil {
		if err := r.setAddressPtr(headKey(role), &member); err != nil {
			return false, err
		}
	} else {
		tailEntry, err := r.getEntry(role, *tailPtr)
		if err != nil {
			return false, err
		}
		tailEntry.Next = &member
		if err := r.setEntry(role, *tailPtr, tailEntry); err != nil {
			return false, err
		}
	}

	if err := r.setEntry(role, member, e); err != nil {
		return false, err
	}
	return true, nil
}

// Revoke removes member from the role.
// Returns false without effect if not granted.
func (r *Roles) Revoke(role accrete.Bytes32, member accrete.Address) (bool, error) {
	e, err := r.getEntry(role, member)
	if err != nil {
		return false, err
	}
	if !e.Listed {
		return false, nil
	}

	if e.Prev == nil {
		if err := r.setAddressPtr(headKey(role), e.Next); err != nil {
			return false, err
		}
	} else {
		prevEntry, err := r.getEntry(role, *e.Prev)
		if err != nil {
			return false, err
		}
		prevEntry.Next = e.Next
		if err := r.setEntry(role, *e.Prev, prevEntry); err != nil {
			return false, err
		}
	}

	if e.Next == nil {
		if err := r.setAddressPtr(tailKey(role), e.Prev); err != nil {
			return false, err
		}
	} else {
		nextEntry, err := r.getEntry(role, *e.Next)
		if err != nil {
			return false, err
		}
		nextEntry.Prev = e.Prev
		if err := r.setEntry(role, *e.Next, nextEntry); err != nil {
			return false, err
		}
	}

	if err := r.setEntry(role, member, &entry{}); err != nil {
		return false, err
	}
	return true, nil
}

// Members enumerates role members in grant order.
func (r *Roles) Members(role accrete.Bytes32) ([]accrete.Address, error) {
	var members []accrete.Address
	ptr, err := r.getAddressPtr(headKey(role))
	if err != nil {
		return nil, err
	}
	for ptr != nil {
		members = append(members, *ptr)
		e, err := r.getEntry(role, *ptr)
		if err != nil {
			return nil, err
		}
		ptr = e.Next
	}
	return members, nil
}
