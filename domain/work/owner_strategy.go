package work

import (
	"encoding/json"
	"strconv"

	"flowcase/bizerror"
	"flowcase/domain"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

// ResolveOwner computes the next owner of a work item for the matched rule.
// It is a pure function over the item, the rule and the caller form data.
// The target_owner_id of TO_SPECIFIC_USER is strategy-implicit and checked
// here, independent of the rule's RequiredFields.
func ResolveOwner(item *domain.WorkItem, rule *domain.TransitionRule, formData map[string]interface{}) (types.ID, error) {
	switch rule.OwnerStrategy {
	case domain.OwnerKeep:
		return item.CurrentOwnerID, nil
	case domain.OwnerToCreator:
		return item.CreatorID, nil
	case domain.OwnerToSpecificUser:
		target, ok := parseOwnerID(formData[domain.FieldTargetOwner])
		if !ok || target == 0 {
			return 0, &bizerror.ErrMissingRequiredField{Field: domain.FieldTargetOwner}
		}
		return target, nil
	default:
		// unrecognized future strategies degrade to KEEP instead of breaking
		// the transition
		logrus.Warnf("unknown owner strategy '%s' of rule (%s, %s, %s), keeping current owner",
			rule.OwnerStrategy, rule.TypeCode, rule.FromState, rule.Action)
		return item.CurrentOwnerID, nil
	}
}

func parseOwnerID(value interface{}) (types.ID, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case types.ID:
		return v, true
	case float64:
		return types.ID(v), true
	case int:
		return types.ID(v), true
	case int64:
		return types.ID(v), true
	case uint64:
		return types.ID(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return types.ID(n), true
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return types.ID(n), true
	default:
		return 0, false
	}
}
