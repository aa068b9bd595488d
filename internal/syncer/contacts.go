package syncer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/maintainly/fssync/internal/model"
	migmodel "github.com/maintainly/fssync/internal/syncer/model"
)

// person is the part of an agent or requester that becomes a contact.
type person struct {
	externalID      string
	name            string
	email           string
	phone           string
	departmentIDs   []string
	departmentNames []string
}

func displayName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func agentPerson(a migmodel.Agent) person {
	return person{
		externalID:    a.ID,
		name:          displayName(a.FirstName, a.LastName),
		email:         a.Email,
		phone:         firstNonEmpty(a.WorkPhone, a.MobilePhone),
		departmentIDs: a.DepartmentIDs,
	}
}

func requesterPerson(r migmodel.Requester) person {
	email := r.Email
	if email == "" && len(r.SecondaryEmails) > 0 {
		email = r.SecondaryEmails[0]
	}
	return person{
		externalID:      r.ID,
		name:            displayName(r.FirstName, r.LastName),
		email:           email,
		phone:           firstNonEmpty(r.WorkPhone, r.MobilePhone),
		departmentIDs:   r.DepartmentIDs,
		departmentNames: r.DepartmentNames,
	}
}

func (o *Orchestrator) syncRequesters(ctx context.Context) (StreamResult, error) {
	requesters, err := o.source.ListRequesters(ctx)
	if err != nil {
		return StreamResult{}, fmt.Errorf("list requesters: %w", err)
	}
	p := newPlan[model.ContactPerson]()
	people := make([]person, 0, len(requesters))
	listed := make(map[string]struct{}, len(requesters))
	for _, r := range requesters {
		p.observe(r.UpdatedAt)
		if _, dup := listed[r.ID]; dup {
			continue
		}
		listed[r.ID] = struct{}{}
		if !r.IsContactPerson {
			// ineligible requesters stay out of the seen set
			p.skip(r.ID, SkipIneligible, false)
			continue
		}
		people = append(people, requesterPerson(r))
	}
	if err := o.reconcileContacts(ctx, model.SourceRequester, p, people); err != nil {
		return p.result(StreamRequesters), err
	}
	return o.finishStream(ctx, StreamRequesters, p.result(StreamRequesters), p.mark)
}

func (o *Orchestrator) syncAgents(ctx context.Context) (StreamResult, error) {
	agents, err := o.source.ListAgents(ctx)
	if err != nil {
		return StreamResult{}, fmt.Errorf("list agents: %w", err)
	}
	p := newPlan[model.ContactPerson]()
	people := make([]person, 0, len(agents))
	for _, a := range agents {
		p.observe(a.UpdatedAt)
		people = append(people, agentPerson(a))
	}
	if err := o.reconcileContacts(ctx, model.SourceAgent, p, people); err != nil {
		return p.result(StreamAgents), err
	}
	res, err := o.finishStream(ctx, StreamAgents, p.result(StreamAgents), p.mark)
	if err != nil {
		return res, err
	}
	if err := o.mergeTechnicians(ctx, agents); err != nil {
		return res, fmt.Errorf("merge technicians: %w", err)
	}
	return res, nil
}

// reconcileContacts diffs people against the local contacts of one source and
// applies the result. Only rows of that source are loaded, so agents and
// requesters never delete each other's rows.
func (o *Orchestrator) reconcileContacts(ctx context.Context, source model.ContactSource, p *plan[model.ContactPerson], people []person) error {
	customers, err := o.store.ListCustomers(ctx)
	if err != nil {
		return err
	}
	local, err := o.store.ListContacts(ctx, source)
	if err != nil {
		return err
	}
	owners := NewCustomerLookup(customers)
	ix := newIndex(local, contactKey)
	now := o.now()

	for _, pr := range people {
		if p.duplicate(pr.externalID) {
			continue
		}
		p.eligible++
		owner, ok := owners.Resolve(pr.departmentIDs, pr.departmentNames)
		if !ok {
			o.logger.Debug("contact skipped, no owning customer",
				zap.String("source", string(source)), zap.String("external_id", pr.externalID))
			p.skip(pr.externalID, SkipNoOwner, true)
			continue
		}
		id, cur, ok := ix.Lookup(pr.externalID)
		if !ok {
			c := model.ContactPerson{ID: o.newID(), ExternalID: strPtr(pr.externalID), Source: source, CreatedAt: now, UpdatedAt: now}
			applyPerson(&c, pr, owner)
			p.insert(pr.externalID, c)
			continue
		}
		next := cur
		applyPerson(&next, pr, owner)
		p.update(pr.externalID, id, contactChanges(cur, next))
	}
	p.finish(ix)

	if err := o.store.ApplyContacts(ctx, p.changes); err != nil {
		return fmt.Errorf("apply %s contacts: %w", source, err)
	}
	return nil
}

func applyPerson(c *model.ContactPerson, pr person, customerID string) {
	c.CustomerID = customerID
	c.Name = pr.name
	c.Email = pr.email
	c.Phone = pr.phone
}

func contactChanges(cur, next model.ContactPerson) changes {
	c := changes{}
	setField(c, "customer_id", cur.CustomerID, next.CustomerID)
	setField(c, "name", cur.Name, next.Name)
	setField(c, "email", cur.Email, next.Email)
	setField(c, "phone", cur.Phone, next.Phone)
	return c
}
