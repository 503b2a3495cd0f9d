// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/lvldb"
	"github.com/accretefi/accrete/state"
)

var (
	p1 = accrete.BytesToAddress([]byte("p1"))
	p2 = accrete.BytesToAddress([]byte("p2"))
	p3 = accrete.BytesToAddress([]byte("p3"))
)

func newTestRoles(t *testing.T) *Roles {
	db, err := lvldb.NewMem()
	assert.NoError(t, err)
	return New(accrete.BytesToAddress([]byte("Roles")), state.New(db))
}

func M(a ...any) []any {
	return a
}

func TestGrantRevoke(t *testing.T) {
	r := newTestRoles(t)
	role := accrete.RoleInvoker

	assert.Equal(t, M(false, nil), M(r.Has(role, p1)))

	assert.Equal(t, M(true, nil), M(r.Grant(role, p1)))
	assert.Equal(t, M(true, nil), M(r.Has(role, p1)))

	// double grant has no effect
	assert.Equal(t, M(false, nil), M(r.Grant(role, p1)))

	assert.Equal(t, M(true, nil), M(r.Revoke(role, p1)))
	assert.Equal(t, M(false, nil), M(r.Has(role, p1)))

	// double revoke has no effect
	assert.Equal(t, M(false, nil), M(r.Revoke(role, p1)))
}

func TestMembersEnumeration(t *testing.T) {
	r := newTestRoles(t)
	role := accrete.RoleAdmin

	for _, m := range []accrete.Address{p1, p2, p3} {
		ok, err := r.Grant(role, m)
		assert.NoError(t, err)
		assert.True(t, ok)
	}

	members, err := r.Members(role)
	assert.NoError(t, err)
	assert.Equal(t, []accrete.Address{p1, p2, p3}, members)

	// revoke in the middle keeps list linked
	_, err = r.Revoke(role, p2)
	assert.NoError(t, err)
	members, err = r.Members(role)
	assert.NoError(t, err)
	assert.Equal(t, []accrete.Address{p1, p3}, members)

	// revoke head
	_, err = r.Revoke(role, p1)
	assert.NoError(t, err)
	members, err = r.Members(role)
	assert.NoError(t, err)
	assert.Equal(t, []accrete.Address{p3}, members)

	// revoke tail empties the list
	_, err = r.Revoke(role, p3)
	assert.NoError(t, err)
	members, err = r.Members(role)
	assert.NoError(t, err)
	assert.Empty(t, members)
}

func TestRolesAreIndependent(t *testing.T) {
	r := newTestRoles(t)

	_, err := r.Grant(accrete.RoleAdmin, p1)
	assert.NoError(t, err)

	assert.Equal(t, M(true, nil), M(r.Has(accrete.RoleAdmin, p1)))
	assert.Equal(t, M(false, nil), M(r.Has(accrete.RoleInvoker, p1)))
}
