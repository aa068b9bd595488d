package syncer

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/maintainly/fssync/internal/model"
	migmodel "github.com/maintainly/fssync/internal/syncer/model"
)

func (o *Orchestrator) syncCustomers(ctx context.Context) (StreamResult, error) {
	departments, err := o.source.ListDepartments(ctx)
	if err != nil {
		return StreamResult{}, fmt.Errorf("list departments: %w", err)
	}
	local, err := o.store.ListCustomers(ctx)
	if err != nil {
		return StreamResult{}, err
	}
	owners, err := o.store.ListManualOwners(ctx)
	if err != nil {
		return StreamResult{}, err
	}
	p := o.planCustomers(departments, local, owners)
	if err := o.store.ApplyCustomers(ctx, p.changes); err != nil {
		return p.result(StreamCustomers), fmt.Errorf("apply customers: %w", err)
	}
	return o.finishStream(ctx, StreamCustomers, p.result(StreamCustomers), p.mark)
}

// planCustomers diffs departments against the local customers. manualOwners
// are customers that own hand-made systems or contacts; they are never deleted
// since the delete would cascade to those rows.
func (o *Orchestrator) planCustomers(departments []migmodel.Department, local []model.Customer, manualOwners []string) *plan[model.Customer] {
	ix := newIndex(local, customerKey)
	taken := newAbbreviations(local)
	p := newPlan[model.Customer]()
	now := o.now()
	for _, d := range departments {
		p.observe(d.UpdatedAt)
		if p.duplicate(d.ID) {
			continue
		}
		p.eligible++
		id, cur, ok := ix.Lookup(d.ID)
		if !ok {
			id = o.newID()
			c := model.Customer{ID: id, ExternalID: strPtr(d.ID), CreatedAt: now, UpdatedAt: now}
			applyDepartment(&c, d)
			c.Abbreviation = taken.assign(d.ShortCode, d.ID, id)
			p.insert(d.ID, c)
			continue
		}
		next := cur
		applyDepartment(&next, d)
		next.Abbreviation = taken.assign(d.ShortCode, d.ID, id)
		p.update(d.ID, id, customerChanges(cur, next))
	}
	p.finish(ix)
	p.changes.Deletes = slices.DeleteFunc(p.changes.Deletes, func(id string) bool {
		if !slices.Contains(manualOwners, id) {
			return false
		}
		c, _ := ix.Row(id)
		o.logger.Info("customer kept, it owns manual rows",
			zap.String("id", id), zap.String("external_id", *c.ExternalID))
		p.skip(*c.ExternalID, SkipManualRows, true)
		return true
	})
	return p
}

func applyDepartment(c *model.Customer, d migmodel.Department) {
	c.Name = d.Name
	c.Address = d.Address
	c.City = d.City
	c.PostalCode = d.PostalCode
	c.Country = d.Country
	c.Email = d.Email
	c.Phone = d.Phone
	c.Website = d.Website
	c.Category = d.Category
	c.BillingCode = d.BillingCode
	c.ServiceManager = d.ServiceManager
	c.SLA = d.SLA
}

func customerChanges(cur, next model.Customer) changes {
	c := changes{}
	setField(c, "name", cur.Name, next.Name)
	setField(c, "address", cur.Address, next.Address)
	setField(c, "city", cur.City, next.City)
	setField(c, "postal_code", cur.PostalCode, next.PostalCode)
	setField(c, "country", cur.Country, next.Country)
	setField(c, "email", cur.Email, next.Email)
	setField(c, "phone", cur.Phone, next.Phone)
	setField(c, "website", cur.Website, next.Website)
	setField(c, "category", cur.Category, next.Category)
	setField(c, "billing_code", cur.BillingCode, next.BillingCode)
	setField(c, "service_manager", cur.ServiceManager, next.ServiceManager)
	setField(c, "sla", cur.SLA, next.SLA)
	setField(c, "abbreviation", cur.Abbreviation, next.Abbreviation)
	return c
}

func strPtr(s string) *string { return &s }
