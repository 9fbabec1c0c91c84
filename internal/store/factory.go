package store

import "crimescape.app/dna/core/db"

// Stores hands out typed stores bound to one connection or transaction.
type Stores struct {
	q db.DBTX
}

func NewStores(q db.DBTX) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Families() FamilyStore {
	return newFamilyStore(s.q)
}

func (s *Stores) Incidents() IncidentStore {
	return newIncidentStore(s.q)
}
