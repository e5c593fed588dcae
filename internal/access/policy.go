// Package access decides whether an actor may perform an action on a resource.
// Decisions depend only on the actor's role and the ownership facts carried by
// the resource; the gate never loads anything itself.
package access

import (
	"marketplace-service/internal/domain"
)

type ResourceKind string

const (
	ResourceOrder    ResourceKind = "order"
	ResourcePayment  ResourceKind = "payment"
	ResourceCoupon   ResourceKind = "coupon"
	ResourceActivity ResourceKind = "activity"
)

type Action string

const (
	ActionRead         Action = "read"
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionUpdateStatus Action = "update_status"
	ActionDelete       Action = "delete"
	ActionVerify       Action = "verify"
)

// Resource describes the ownership relation of the thing being accessed.
// CustomerID is the customer who created the order (or the payment's order).
// SupplierIDs are the suppliers owning at least one product on it, or the
// supplier a coupon is scoped to.
type Resource struct {
	Kind        ResourceKind
	CustomerID  uint64
	SupplierIDs []uint64
}

func OrderResource(o *domain.Order) Resource {
	return Resource{Kind: ResourceOrder, CustomerID: o.CustomerID, SupplierIDs: o.SupplierIDs()}
}

func ActivityResource(o *domain.Order) Resource {
	r := OrderResource(o)
	r.Kind = ResourceActivity
	return r
}

func PaymentResource(p *domain.OrderPayment, customerID uint64) Resource {
	return Resource{Kind: ResourcePayment, CustomerID: customerID, SupplierIDs: p.SupplierIDs()}
}

func CouponResource(c *domain.Coupon) Resource {
	r := Resource{Kind: ResourceCoupon}
	if c != nil && c.SupplierID != nil {
		r.SupplierIDs = []uint64{*c.SupplierID}
	}
	return r
}

type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

func deny(reason string) Decision { return Decision{Reason: reason} }

// Err converts a denial into a *domain.ForbiddenError.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &domain.ForbiddenError{Reason: d.Reason}
}

// CanAccess evaluates admin, supplier, then customer/professional rules.
// A nil actor is an unauthenticated caller.
func CanAccess(actor *domain.Actor, res Resource, action Action) Decision {
	if actor == nil {
		if res.Kind == ResourceCoupon && action == ActionVerify {
			return allow
		}
		return deny("authentication required")
	}

	switch actor.Role {
	case domain.RoleAdmin:
		return allow
	case domain.RoleSupplier:
		return supplierDecision(actor, res, action)
	case domain.RoleCustomer, domain.RoleProfessional:
		return customerDecision(actor, res, action)
	}
	return deny("unknown role")
}

func supplierDecision(actor *domain.Actor, res Resource, action Action) Decision {
	if action == ActionVerify && res.Kind == ResourceCoupon {
		return allow
	}
	if res.Kind == ResourcePayment && action == ActionUpdateStatus {
		return deny("payment status changes are admin only")
	}
	if res.Kind == ResourceOrder && action == ActionDelete {
		return deny("suppliers cannot delete orders")
	}
	if actor.SupplierID == 0 || !containsID(res.SupplierIDs, actor.SupplierID) {
		return deny("resource references none of the supplier's products")
	}
	return allow
}

func customerDecision(actor *domain.Actor, res Resource, action Action) Decision {
	switch res.Kind {
	case ResourceCoupon:
		if action == ActionVerify || action == ActionRead {
			return allow
		}
		return deny("customers cannot modify coupons")
	case ResourceActivity:
		if action != ActionRead {
			return deny("customers cannot create audit entries")
		}
	case ResourcePayment:
		if action == ActionUpdateStatus {
			return deny("payment status changes are admin only")
		}
	}
	if res.CustomerID != actor.ID {
		return deny("resource belongs to another customer")
	}
	return allow
}

func containsID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
