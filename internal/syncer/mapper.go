package syncer

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/maintainly/fssync/internal/model"
)

// AbbreviationPrefix marks abbreviations derived from a department id.
const AbbreviationPrefix = "FS-"

// Index maps a local table snapshot by external id. Rows without an external
// id are kept out of byExternal and therefore never patched or deleted.
type Index[T any] struct {
	byExternal map[string]string
	rows       map[string]T
	order      []string
}

func newIndex[T any](rows []T, key func(T) (string, *string)) *Index[T] {
	ix := &Index[T]{
		byExternal: make(map[string]string, len(rows)),
		rows:       make(map[string]T, len(rows)),
	}
	for _, r := range rows {
		id, ext := key(r)
		ix.rows[id] = r
		if ext == nil || *ext == "" {
			continue
		}
		if _, dup := ix.byExternal[*ext]; dup {
			continue
		}
		ix.byExternal[*ext] = id
		ix.order = append(ix.order, *ext)
	}
	return ix
}

// Lookup returns the local row synced from externalID.
func (ix *Index[T]) Lookup(externalID string) (string, T, bool) {
	id, ok := ix.byExternal[externalID]
	if !ok {
		var zero T
		return "", zero, false
	}
	return id, ix.rows[id], true
}

// Row returns the snapshot row with local id.
func (ix *Index[T]) Row(id string) (T, bool) {
	r, ok := ix.rows[id]
	return r, ok
}

// Unseen returns the local ids of synced rows whose external id is not in seen.
func (ix *Index[T]) Unseen(seen map[string]struct{}) []string {
	var out []string
	for _, ext := range ix.order {
		if _, ok := seen[ext]; !ok {
			out = append(out, ix.byExternal[ext])
		}
	}
	sort.Strings(out)
	return out
}

func customerKey(c model.Customer) (string, *string) { return c.ID, c.ExternalID }
func systemKey(s model.System) (string, *string) { return s.ID, s.ExternalID }
func contactKey(c model.ContactPerson) (string, *string) { return c.ID, c.ExternalID }

// CustomerLookup resolves the owner of a system or contact.
type CustomerLookup struct {
	byExternal map[string]string
	byName     map[string]string
	fold       cases.Caser
}

// NewCustomerLookup indexes customers by department id and by folded name.
// When two customers share a name the first one in snapshot order wins.
func NewCustomerLookup(customers []model.Customer) *CustomerLookup {
	l := &CustomerLookup{
		byExternal: make(map[string]string, len(customers)),
		byName:     make(map[string]string, len(customers)),
		fold:       cases.Fold(),
	}
	for _, c := range customers {
		if c.ExternalID != nil && *c.ExternalID != "" {
			l.byExternal[*c.ExternalID] = c.ID
		}
		if key := l.key(c.Name); key != "" {
			if _, ok := l.byName[key]; !ok {
				l.byName[key] = c.ID
			}
		}
	}
	return l
}

func (l *CustomerLookup) key(name string) string {
	return l.fold.String(strings.TrimSpace(name))
}

// Resolve tries the department ids in order, then the department names.
func (l *CustomerLookup) Resolve(departmentIDs, departmentNames []string) (string, bool) {
	for _, id := range departmentIDs {
		if local, ok := l.byExternal[id]; ok {
			return local, true
		}
	}
	for _, name := range departmentNames {
		if local, ok := l.byName[l.key(name)]; ok {
			return local, true
		}
	}
	return "", false
}

// abbreviations tracks which customer holds each abbreviation during one
// customer stream run. Values held by rows in the snapshot stay reserved for
// the whole run so no statement in the transaction can hit the unique index.
type abbreviations map[string]string

func newAbbreviations(customers []model.Customer) abbreviations {
	a := make(abbreviations, len(customers))
	for _, c := range customers {
		if c.Abbreviation != "" {
			a[c.Abbreviation] = c.ID
		}
	}
	return a
}

// Abbreviation returns shortCode when it is set and not held by another
// customer, otherwise AbbreviationPrefix followed by the department id. A
// derived code that is already held gets the first free "-<n>" suffix,
// starting at 2.
func Abbreviation(shortCode, externalID, customerID string, taken map[string]string) string {
	free := func(code string) bool {
		holder, ok := taken[code]
		return !ok || holder == customerID
	}
	if code := strings.TrimSpace(shortCode); code != "" && free(code) {
		return code
	}
	code := AbbreviationPrefix + externalID
	for n := 2; !free(code); n++ {
		code = fmt.Sprintf("%s%s-%d", AbbreviationPrefix, externalID, n)
	}
	return code
}

func (a abbreviations) assign(shortCode, externalID, customerID string) string {
	code := Abbreviation(shortCode, externalID, customerID, a)
	a[code] = customerID
	return code
}
